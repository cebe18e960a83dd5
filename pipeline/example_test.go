package pipeline_test

import (
	"context"
	"fmt"

	"github.com/hupe1980/pandora/aggregate"
	"github.com/hupe1980/pandora/blobstore"
	"github.com/hupe1980/pandora/pipeline"
)

func ExampleBuild() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	_ = store.Put(ctx, "vocab.txt", []byte("0,0\n10,10\n"))
	_ = store.Put(ctx, "desc/cat.sift", []byte("1,1\n2,0\n9,9\n"))

	report, err := pipeline.Build(ctx, store, pipeline.BuildJob{
		Input:        "desc/",
		Extension:    ".sift",
		Method:       aggregate.BOW,
		Vocabularies: []string{"vocab.txt"},
		Output:       "vec",
	})
	if err != nil {
		panic(err)
	}

	vector, _ := store.Get(ctx, "vec/cat.bow")
	fmt.Printf("items=%d failed=%d\n", report.Count(), report.FailedCount())
	fmt.Print(string(vector))

	// Output:
	// items=1 failed=0
	// 2,1
}
