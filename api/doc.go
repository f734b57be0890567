// Package api exposes the falling blocks service over HTTP.
//
// Routes (gorilla/mux), all JSON:
//
//	GET    /api/health
//	POST   /api/sessions                      {"config_id": "wells"}
//	GET    /api/sessions                      ?sort=created|accessed&order=asc|desc&limit=N
//	GET    /api/sessions/unified              ?sessionIds=a,b or ?configName=x
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	GET    /api/sessions/{id}/state
//	POST   /api/sessions/{id}/command         {"command": "drop:L", "reset": false}
//	POST   /api/sessions/{id}/bulk-command    {"commands": ["drop:I5", "cw"], "continue_on_blocked": false}
//	POST   /api/sessions/{id}/reset
//	GET    /api/sessions/{id}/history         ?page=1&limit=20&order=desc
//	GET    /api/sessions/{id}/cell            ?row=0&col=3
//	GET    /api/configs
//	POST   /api/configs                       a GameConfig, optionally with "config_id"
//	GET    /api/configs/{name}
//	GET    /ws?session={id}
//
// Responses under /api are gzip-compressed when the client accepts it.
// Errors come back as {"error": "..."}: 400 for malformed requests and
// commands, 404 for unknown sessions or configs, 500 otherwise.
//
// Every command, bulk command and reset pushes the new state to the
// session's WebSocket watchers and logs a one-line summary:
//
//	[CMD] session=ab12 action=cw (0,3)r0->(0,3)r1 kick=0 status=OK
//	[BULK] session=ab12 exec=3/3 ok=2 stop=blocked end=(1,0)
package api
