package vecand_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/vecand"
	"github.com/hupe1980/vecand/catalog"
	"github.com/hupe1980/vecand/index/flat"
	"github.com/hupe1980/vecand/metadata"
	"github.com/hupe1980/vecand/model"
)

func exampleCatalog() *catalog.Catalog {
	movies := metadata.NewIndex()
	plots, err := flat.New(func(o *flat.Options) { o.Dimension = 2 })
	if err != nil {
		log.Fatal(err)
	}

	for i, year := range []int64{1944, 1950, 1958, 1974, 1999} {
		id := model.RowID(i + 1)
		movies.Set(id, metadata.Document{"genre": metadata.String("noir"), "year": metadata.Int(year)})
		if err := plots.Insert(id, []float32{float32(id), 0}); err != nil {
			log.Fatal(err)
		}
	}

	cat := catalog.New()
	if err := cat.AddMetadataIndex("movies", movies); err != nil {
		log.Fatal(err)
	}
	if err := cat.AddVectorIndex("plots", plots); err != nil {
		log.Fatal(err)
	}
	return cat
}

func Example() {
	ctx := context.Background()

	eng, err := vecand.New(exampleCatalog())
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	p := vecand.And(
		vecand.IndexScan("movies").Param("year", metadata.OpGreaterEqual, 1).MustBuild(),
		vecand.Similar("plots", []float32{0, 0}).MustBuild(),
	).Limit(2).MustBuild()

	q, err := eng.Prepare(p)
	if err != nil {
		log.Fatal(err)
	}
	defer q.Close()

	for _, year := range []int{1940, 1955} {
		if err := q.Bind(ctx, vecand.Params{1: year}); err != nil {
			log.Fatal(err)
		}
		rows, err := q.Run(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(year, rows.ToArray())
		rows.Release()
	}

	// Output:
	// 1940 [1 2]
	// 1955 [3 4]
}

func ExampleEngine_Search() {
	eng, err := vecand.New(exampleCatalog())
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	hits, err := eng.Search("plots", []float32{0, 0}).
		KNN(2).
		Where("movies", metadata.Filter{Key: "year", Operator: metadata.OpGreaterEqual, Value: metadata.Int(1950)}).
		Execute(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	for _, h := range hits {
		fmt.Printf("row=%d distance=%g\n", h.ID, h.Distance)
	}

	// Output:
	// row=2 distance=4
	// row=3 distance=9
}
