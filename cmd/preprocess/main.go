package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"openlrencoder/pkg/ch"
	"openlrencoder/pkg/graph"
	osmparser "openlrencoder/pkg/osm"
)

func main() {
	input := flag.String("input", "", "Path to .osm.pbf file")
	output := flag.String("output", "graph.bin", "Output binary graph file path")
	bbox := flag.String("bbox", "", "Bounding box filter: minLat,minLng,maxLat,maxLng (e.g. 49.44,5.73,50.19,6.53)")
	luxembourg := flag.Bool("luxembourg", false, "Shortcut for --bbox 49.44,5.73,50.19,6.53 (Luxembourg bounding box)")
	benelux := flag.Bool("benelux", false, "Shortcut for --bbox 49.44,2.50,53.60,7.25 (Benelux bounding box)")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: preprocess --input <file.osm.pbf> [--output graph.bin] [--luxembourg | --benelux | --bbox minLat,minLng,maxLat,maxLng]")
		os.Exit(1)
	}

	// Parse bbox option.
	var opts osmparser.ParseOptions
	if *benelux {
		opts.BBox = osmparser.BBox{MinLat: 49.44, MaxLat: 53.60, MinLng: 2.50, MaxLng: 7.25}
		log.Println("Using Benelux bounding box filter: lat [49.44, 53.60], lng [2.50, 7.25]")
	} else if *luxembourg {
		opts.BBox = osmparser.BBox{MinLat: 49.44, MaxLat: 50.19, MinLng: 5.73, MaxLng: 6.53}
		log.Println("Using Luxembourg bounding box filter: lat [49.44, 50.19], lng [5.73, 6.53]")
	} else if *bbox != "" {
		var minLat, minLng, maxLat, maxLng float64
		_, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng)
		if err != nil {
			log.Fatalf("Invalid bbox format (expected minLat,minLng,maxLat,maxLng): %v", err)
		}
		opts.BBox = osmparser.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
		log.Printf("Using bounding box filter: lat [%.4f, %.4f], lng [%.4f, %.4f]", minLat, maxLat, minLng, maxLng)
	}

	start := time.Now()

	// Step 1: Parse OSM data.
	log.Println("Opening OSM file...")
	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open input file: %v", err)
	}
	defer f.Close()

	log.Println("Parsing OSM data...")
	parseResult, err := osmparser.Parse(context.Background(), f, opts)
	if err != nil {
		log.Fatalf("Failed to parse OSM data: %v", err)
	}
	log.Printf("Parsed %d edges, %d nodes", len(parseResult.Edges), len(parseResult.NodeLat))

	// Step 2: Build graph.
	log.Println("Building graph...")
	g := graph.Build(parseResult)
	log.Printf("Graph: %d nodes, %d edges", g.NumNodes, g.NumEdges)

	// Step 3: Extract largest connected component.
	log.Println("Extracting largest connected component...")
	componentNodes := graph.LargestComponent(g)
	log.Printf("Largest component: %d nodes (%.1f%%)", len(componentNodes), float64(len(componentNodes))/float64(g.NumNodes)*100)
	g = graph.FilterToComponent(g, componentNodes)
	log.Printf("Filtered graph: %d nodes, %d edges", g.NumNodes, g.NumEdges)

	// Step 4: Contract CH.
	log.Println("Running Contraction Hierarchies...")
	chResult := ch.Contract(g)
	log.Printf("CH complete: %d fwd edges, %d bwd edges", len(chResult.FwdHead), len(chResult.BwdHead))

	// Step 5: Serialize to binary.
	log.Printf("Writing binary to %s...", *output)
	if err := graph.WriteBinary(*output, chResult); err != nil {
		log.Fatalf("Failed to write binary: %v", err)
	}

	info, _ := os.Stat(*output)
	elapsed := time.Since(start)
	log.Printf("Done in %s. Output: %s (%.1f MB)", elapsed.Round(time.Second), *output, float64(info.Size())/(1024*1024))
}
