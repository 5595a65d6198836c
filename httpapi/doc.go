// Package httpapi serves the publish endpoint and its HTML report over Echo.
package httpapi
