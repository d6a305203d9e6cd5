// Package prodsearch embeds semantic product search and purchase-based
// recommendations into a Go application, without running the HTTP service.
//
// Candidates come from a catalog (Postgres via WithPostgres, or any Catalog
// implementation), are embedded on the fly and ranked by cosine similarity.
// Ranked lists are cached in Valkey, Redis or process memory.
//
//	client, _ := prodsearch.New(ctx,
//	    prodsearch.WithPostgres("postgres://shop@localhost/shop"),
//	    prodsearch.WithValkey("localhost:6379", ""),
//	    prodsearch.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "", "text-embedding-3-small"),
//	)
//	defer client.Close()
//
//	hits, _ := client.Search(ctx, "wireless headphones",
//	    prodsearch.InCategory(3),
//	    prodsearch.InStockOnly(),
//	    prodsearch.SortBy(prodsearch.SortByPrice, prodsearch.SortAsc),
//	)
//	recs, _ := client.Recommend(ctx, userID)
//
// After catalog writes call InvalidateProducts; after an order call InvalidateUser.
package prodsearch
