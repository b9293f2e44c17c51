package webmonitor

import "html/template"

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Detection Monitor</title>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <script src="/assets/refresh.js" defer></script>
</head>
<body data-status="/json" data-interval="{{.RefreshInterval}}">
    <h1>Detection Monitor</h1>
    <p>Source: <a href="{{.SourceURL}}">{{.Source}}</a></p>
    <p>Device: {{if .DeviceID}}{{.DeviceID}}{{else}}(not set){{end}} &middot; last message {{.LastSeen}}</p>

    <img id="detect" src="/images/detect.jpg" alt="Latest detection frame" style="max-width:100%;">

    <table>
        <tr><td>Detected at</td><td id="when">--</td></tr>
        <tr><td>Entities</td><td id="classes">{{.EntityCount}}</td></tr>
        <tr><td>Camera time</td><td id="camtime">{{.CamTime}}</td></tr>
        <tr><td>Inference time</td><td id="inftime">{{.InfTime}}</td></tr>
    </table>

    {{if .KafkaSub}}
    <p>This data is also being published to EventStreams (kafka). Subscribe with:</p>
    <p style="font-family:monospace;">{{.KafkaSub}}</p>
    {{else}}
    <p>Nothing is being published to Kafka!</p>
    {{end}}
</body>
</html>
`
