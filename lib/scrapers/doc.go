package scrapers

// the scrapers in this tree are read-only and mostly stateless, each method
// is independent of the others and the output depends solely on the input.
// EXCEPT for the optional session cookies / bearer token, which are an
// implied input for every method.

// each scraping method generally has this structure:
// 1. transform input into an HTTP request (path, headers, query).
// 2. make the request through the throttled client.
// 3. make assertions on response validity (status, body shape).
// 4. run the pattern extractors over whatever text came back.

// the response-to-output step is usually -> goquery selectors into structs
//                                        -> json -> struct
//                                        -> base64 -> text

// a failed step yields an empty result, not an aborted scrape. the only
// exception is quota exhaustion on the code-host api, which has to stop the
// whole run so partial results can be persisted.
