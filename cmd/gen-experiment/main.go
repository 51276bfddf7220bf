package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/loam"

	loamadapter "github.com/aretw0/microcosm/pkg/adapters/loam"
)

func main() {
	targetDir := "examples/getting-started"
	if len(os.Args) > 1 {
		targetDir = os.Args[1]
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		panic(err)
	}

	fmt.Printf("Generating starter experiments in: %s\n", targetDir)

	// No versioning: this is pure file generation.
	repo, err := loam.Init(targetDir, loam.WithVersioning(false))
	if err != nil {
		panic(err)
	}

	typedRepo := loam.NewTypedRepository[loamadapter.ExperimentMetadata](repo)
	ctx := context.TODO()

	// 1. Exponential growth, the smallest possible experiment.
	err = typedRepo.Save(ctx, &loam.DocumentModel[loamadapter.ExperimentMetadata]{
		ID:      "growth",
		Content: "A single cell doubling roughly every ten time units.",
		Data: loamadapter.ExperimentMetadata{
			Horizon: float64(30),
			Processes: []loamadapter.ProcessMetadata{
				{
					Name:     "growth",
					Kind:     "growth",
					Config:   map[string]any{"rate": 0.069, "initial_mass": 1000.0},
					Topology: map[string]string{"global": "agents/cell"},
				},
			},
		},
	})
	check(err)

	// 2. Stochastic binding kinetics, seeded for reproducibility.
	// Trailing whitespace in the body on purpose: descriptions must trim.
	err = typedRepo.Save(ctx, &loam.DocumentModel[loamadapter.ExperimentMetadata]{
		ID:      "binding",
		Content: "Two species associating irreversibly until one runs out.\n\n   ",
		Data: loamadapter.ExperimentMetadata{
			Horizon: float64(50),
			Seed:    int64(11),
			Processes: []loamadapter.ProcessMetadata{
				{
					Name: "binding",
					Kind: "reactions",
					Config: map[string]any{
						"reactions": []string{"A + B -> AB @ 0.01"},
						"counts":    map[string]any{"A": 120, "B": 80},
					},
					Topology: map[string]string{"molecules": "environment"},
				},
			},
		},
	})
	check(err)

	// 3. Gene expression driven by a timeline that stocks the cell at t=0
	// and tops the nucleotide pool back up halfway through.
	err = typedRepo.Save(ctx, &loam.DocumentModel[loamadapter.ExperimentMetadata]{
		ID:      "transcription",
		Content: "Polymerases transcribing one gene against a finite nucleotide pool.",
		Data: loamadapter.ExperimentMetadata{
			Horizon: float64(40),
			Seed:    int64(7),
			Processes: []loamadapter.ProcessMetadata{
				{
					Name: "feed",
					Kind: "timeline",
					Config: map[string]any{
						"entries": []map[string]any{
							{
								"time": 0.0,
								"values": map[string]any{
									"molecules": map[string]any{
										"polymerase": 6,
										"atp":        4000, "gtp": 4000, "ctp": 4000, "utp": 4000,
									},
								},
							},
							{
								"time": 20.0,
								"values": map[string]any{
									"molecules": map[string]any{"atp": 4000},
								},
							},
						},
					},
					Topology: map[string]string{
						"global":    "environment",
						"molecules": "cell/molecules",
					},
				},
				{
					Name: "expression",
					Kind: "expression",
					Config: map[string]any{
						"templates": []map[string]any{
							{
								"name":         "rpoA",
								"sequence":     []string{"atp", "gtp", "ctp", "utp", "atp", "gtp"},
								"product":      "rpoA_rna",
								"copies":       2,
								"binding_rate": 0.4,
							},
						},
						"elongation_rate": 3.0,
					},
					Topology: map[string]string{
						"molecules":   "cell/molecules",
						"transcripts": "cell/transcripts",
						"machinery":   "cell/machinery",
					},
				},
			},
		},
	})
	check(err)

	fmt.Println("Done. Try: microcosm run", targetDir, "-e growth")
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
