// Package roomrank is the client SDK for the roomrank recommendation API.
//
// The client talks to a running roomrank server over HTTP. Minimal usage:
//
//	client := roomrank.New(
//		roomrank.WithBaseURL("http://localhost:8080"),
//		roomrank.WithAPIKey(os.Getenv("ROOMRANK_API_KEY")),
//	)
//
//	result, err := client.RecommendApartments(ctx, roomrank.Request{
//		Query: "bright two-bedroom near Retiro under 1500",
//		TopK:  5,
//	})
//
// API errors decode into *APIError, checkable with errors.As. A degraded
// response is still a valid ranking; check Result.Degraded when the caller
// needs to distinguish full pipelines from fallbacks.
package roomrank
