package httpapi

import (
	"bytes"
	"html/template"

	"github.com/next-trace/scg-mdb-client/publisher"
)

const banner = "Destination publisher: sends text messages to a primary queue or topic " +
	"and to every secondary destination."

var reportTmpl = template.Must(template.New("report").Parse(`<h1>{{.Banner}}</h1>
{{range .Reports}}<p>Sending messages to <em>{{.Destination}}</em></p>
<h2>The following messages will be sent to the {{.Label}} destination:</h2>
{{range $i, $text := .Sent}}Message ({{$i}}): {{$text}}<br/>
{{end}}{{if .Err}}<h2>{{.Destination}}</h2><p>{{.Err}}</p>
{{end}}{{end}}<p><i>Go to your server console or server log to see the result of messages processing.</i></p>
`))

type reportView struct {
	Banner  string
	Reports []publisher.Report
}

// RenderReport writes the HTML page for one publish pass.
func RenderReport(reports []publisher.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, reportView{Banner: banner, Reports: reports}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
