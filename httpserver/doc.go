/*
Package httpserver provides the JSON HTTP glue around the registration
orchestrator.

The API maps request bodies directly onto the orchestrator's entry
contract and returns its terminal output:

	POST /api/v1/register  {"id": "...", "appId": "...", "pin": 1234}
	  -> {"success": true} | {"success": false, "error": "..."}

	POST /api/v1/recover   {"id": "...", "appId": "...", "pin": 1234}
	  -> {"publicKey": "..."} | 404

The recover endpoint never returns the private key; a missing record, a
wrong pin, and a corrupted envelope all produce the same 404.

The server also exposes operational endpoints: /livez, /readyz, /drain
and /undrain for load balancer integration, a Prometheus scrape endpoint
on a separate listener, and optionally pprof under /debug.
*/
package httpserver
