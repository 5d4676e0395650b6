package httpapi

import "html/template"

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { margin: 0; background: #0b0f14; color: #e6edf3; font-family: system-ui, sans-serif; }
.ticker { overflow: hidden; white-space: nowrap; border-bottom: 1px solid #1f2933; }
.ticker-track { display: inline-flex; animation: scroll linear infinite; animation-duration: {{if .Scroll}}{{.Scroll}}{{else}}60{{end}}s; }
.item { display: inline-flex; gap: .5em; padding: .6em 1.5em; }
.sym { font-weight: 600; }
.name { color: #8b98a5; }
.up { color: #00e676; } .down { color: #ff5252; } .flat { color: #8b98a5; }
.grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(240px, 1fr)); gap: 1em; padding: 1em; }
.chart-card { background: #111821; border-radius: 8px; padding: .8em; }
.chart-card h2 { font-size: 1em; margin: 0 0 .3em; }
.chart-card canvas { width: 100%; height: 80px; }
@keyframes scroll { from { transform: translateX(0); } to { transform: translateX(-100%); } }
</style>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
</head>
<body>
<div class="ticker">
{{- range $i, $html := .Tracks}}
<div class="ticker-track" id="{{index $.Keys $i}}">{{$html}}</div>
{{- end}}
</div>
<div class="grid" id="{{.Grid}}">{{.Body}}</div>
<script>
(function () {
  const versions = {};
  const charts = {};
  let ws;

  function visible() { return document.visibilityState === "visible"; }

  function report() {
    if (ws && ws.readyState === WebSocket.OPEN) {
      ws.send(JSON.stringify({type: "visibility", visible: visible()}));
    }
  }

  function apply(u) {
    if (u.type === "target") {
      if ((versions[u.key] || 0) > u.version) return;
      versions[u.key] = u.version;
      const el = document.getElementById(u.key);
      if (el) el.innerHTML = u.html;
      for (const k in charts) {
        if (!document.body.contains(charts[k].canvas)) { charts[k].destroy(); delete charts[k]; }
      }
    } else if (u.type === "scroll") {
      const el = document.getElementById(u.key);
      if (el) el.style.animationDuration = u.scrollSeconds + "s";
    } else if (u.type === "chart") {
      const canvas = document.querySelector('[data-surface="' + u.key + '"]');
      if (!canvas || typeof Chart === "undefined") return;
      if (charts[u.key]) charts[u.key].destroy();
      charts[u.key] = new Chart(canvas, u.config);
    }
  }

  function connect() {
    const proto = location.protocol === "https:" ? "wss://" : "ws://";
    ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = report;
    ws.onmessage = function (ev) { apply(JSON.parse(ev.data)); };
    ws.onclose = function () { setTimeout(connect, 2000); };
  }

  document.addEventListener("visibilitychange", report);
  connect();
})();
</script>
</body>
</html>
`))
