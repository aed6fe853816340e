// Package checker holds the per-endpoint checks run after a domain has been
// resolved.
//
// Architecture overview:
//
//   - Checks implement the Check interface (Name + Run) and return a map of
//     facts for one endpoint. They never probe the endpoint's root again; the
//     settled response, TLS state and redirect come from site.Endpoint.
//   - The registry is a static list of Definitions iterated in name order.
//     Select builds either the explicitly named checks or every check that is
//     enabled by default.
//   - Runner executes the selected checks for one endpoint in parallel, at most
//     four at a time, and plugs into site.Domain.Report through CheckFunc.
//   - Extra path probes (random 404 paths, robots.txt, well-known URIs) go
//     through the endpoint's fetcher as batches, so they share its worker
//     pool, cache and rate limit.
package checker
