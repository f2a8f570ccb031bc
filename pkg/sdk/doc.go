// Package keywordlab embeds the keyword research pipeline in a Go program,
// backed by Redis and an OpenAI-compatible or Gemini model.
//
// A research run collects keyword ideas for a seed query from the model and from
// search engine autosuggest, enriches them with search volume and saves the
// record. Records can then be clustered in the background and given personas.
//
//	client, _ := keywordlab.New(ctx,
//	    keywordlab.WithRedis("localhost:6379", ""),
//	    keywordlab.WithOpenAI(os.Getenv("OPENAI_API_KEY"), "gpt-4o-mini"),
//	    keywordlab.WithVolumeAPI("", os.Getenv("KE_API_KEY")),
//	)
//	defer client.Close(ctx)
//
//	id, _ := client.Research(ctx, keywordlab.Query{Text: "matcha recipe"})
//	task, _ := client.Cluster(ctx, id)
//	_ = task.Wait(ctx)
//	rec, _ := client.Get(ctx, id)
package keywordlab
