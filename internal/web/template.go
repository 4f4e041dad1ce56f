package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/ember-trigger/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateClass": func(s string) string {
		switch s {
		case "ARMED":
			return "armed"
		case "PLAYING":
			return "playing"
		case "IDLE":
			return "idle"
		}
		return "unknown"
	},
	"ms": func(d time.Duration) int64 { return d.Milliseconds() },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Ember Trigger</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.armed { color: green; font-weight: bold; }
.playing { color: #c00; font-weight: bold; }
.idle { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Ember Trigger</h1>

<h2>State</h2>
<table>
<tr><th>Controller</th><td id="state" class="{{stateClass (printf "%s" .State)}}">{{if .State}}{{.State}}{{else}}UNKNOWN{{end}}</td></tr>
<tr><th>Trigger</th><td>{{if .Trigger}}high{{else}}low{{end}}</td></tr>
<tr><th>Cooldown left</th><td>{{ms .CooldownRemaining}}ms</td></tr>
<tr><th>Last clip</th><td>{{if .LastClip}}{{.LastClip}}{{else}}none{{end}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Triggers</th><td>{{.Counts.Triggers}}</td></tr>
<tr><th>Ignored edges</th><td>{{.Counts.Ignored}}</td></tr>
<tr><th>Failed playbacks</th><td>{{.Counts.Failures}}</td></tr>
</table>

<h2>Clips</h2>
<table>
{{range $i, $c := .Clips}}<tr><th>{{$i}}</th><td>{{$c}}</td></tr>
{{else}}<tr><td>none</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Cooldown</th><td>{{.Config.CooldownMs}}ms</td></tr>
<tr><th>Pixels</th><td>{{.Config.NumPixels}}</td></tr>
<tr><th>Audio dir</th><td>{{.Config.AudioDir}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
