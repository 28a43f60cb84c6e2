// Package hexo provides the model and interfaces for working with a
// schema-driven REST API whose resources are discovered at runtime.
//
// # Overview
//
// The API publishes a root index naming every resource together with its
// list endpoint and schema document. A Descriptor holds one resource's
// schema; an Accessor is the gateway to that resource; List and Instance are
// the client-side views of list pages and single objects. A concrete Client
// is provided by the hexoclient package, which wires configuration,
// signed transport, discovery, and schema caching.
//
// Getting a client
//
//	ctx := context.Background()
//	cli, err := hexoclient.New(ctx, &hexo.Config{APIKey: "key", APISecret: "secret"})
//	if err != nil { log.Fatal(err) }
//
//	users, err := cli.Resource(ctx, "user")
//	if err != nil { log.Fatal(err) }
//
//	me, err := users.GetByID(ctx, 1234)
//	if err != nil { log.Fatal(err) }
//
//	err = me.Update(ctx, map[string]interface{}{"first_name": "Ada"})
//
// # Permissions
//
// Every accessor and instance operation is checked against the resource's
// allowed list and detail methods before anything is sent. A refused call
// returns a *MethodNotAllowedError and performs no request.
//
// # Pagination
//
// A List holds the pages fetched so far. Advance and Retreat follow the
// server's cursors; Iterator, Seq and All fetch further pages on demand:
//
//	list, err := records.List(ctx, map[string]interface{}{"user": me})
//	for record, err := range list.Seq(ctx) {
//	  if err != nil { break }
//	  _ = record
//	}
//
// # Errors
//
// Responses with a status of 400 or above are returned as *HTTPError, which
// matches ErrHTTP and a status-specific sentinel such as ErrNotFound. The
// response envelope stays reachable through ResponseFromError.
//
// # Interceptors and caching
//
// Request/response interceptors (logging, headers, metrics) run around every
// call. Discovered schemas are persisted through a SchemaStore: memory,
// file, SQLite, NATS JetStream KV, or a layered StoreChain.
package hexo
