package livereload

import "net/http"

// ScriptPath is where the client script is served.
const ScriptPath = "/__press/livereload.js"

// EventsPath is the server-sent events endpoint the client script subscribes to.
const EventsPath = "/__press/events"

// ScriptTag is injected into served HTML pages.
const ScriptTag = `<script src="` + ScriptPath + `"></script>`

const clientScript = `(function () {
  if (!window.EventSource) { return; }
  var last = null;
  var source = new EventSource("` + EventsPath + `");
  source.addEventListener("reload", function (e) {
    var msg = JSON.parse(e.data);
    if (msg.buildId === last) { return; }
    last = msg.buildId;
    window.location.reload();
  });
})();
`

// ScriptHandler serves the client script.
func ScriptHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write([]byte(clientScript))
	})
}
