// Package hexoclient provides the entry point for constructing a client
// that implements the hexo.Client interface.
//
// The returned client discovers the API's resources from its root index
// and schema documents, caches the result, and exposes each resource as a
// hexo.Accessor.
//
// Quick start
//
//	ctx := context.Background()
//
//	cli, err := hexoclient.New(ctx, &hexo.Config{
//	  APIKey:    "key",
//	  APISecret: "secret",
//	  UserAuth:  "athlete@example.com:password",
//	})
//	if err != nil { log.Fatal(err) }
//
//	records, err := cli.Resource(ctx, "record")
//	if err != nil { log.Fatal(err) }
//
//	list, err := records.List(ctx, map[string]interface{}{"user": 1234})
//	if err != nil { log.Fatal(err) }
//
//	for record, err := range list.Seq(ctx) {
//	  if err != nil { log.Fatal(err) }
//	  fmt.Println(record.ResourceURI())
//	}
//
// # Base URL
//
// Only the scheme and host of Config.BaseURL are used; https is assumed when
// no scheme is given. An empty BaseURL targets the production API.
//
// # TLS and development mode
//
// Config.SkipTLSVerify is gated by the environment variable HEXO_DEV_MODE to
// avoid accidental insecure usage in production environments.
package hexoclient
