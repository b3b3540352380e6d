// Package api defines the Susu RPC messages and the Connect handlers and
// clients for them.
//
// Messages are plain Go structs sent as JSON (the "json" codec), so they can be
// called from a browser with fetch or from curl:
//
//	curl -H 'Content-Type: application/json' -H 'Authorization: Bearer ...' \
//	    -d '{"groupId":"..."}' http://localhost:8080/susu.v1.GroupService/GetGroup
package api
