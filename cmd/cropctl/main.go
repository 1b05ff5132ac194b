// cropctl is an operator CLI over the same advisor the server uses: query
// recommendations, historical weather, or tabulated rainfall without
// running the HTTP service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agrisense/crop-advisor/internal/advisor"
	"github.com/agrisense/crop-advisor/internal/app"
	"github.com/agrisense/crop-advisor/internal/config"
	"github.com/agrisense/crop-advisor/internal/season"
)

var rootCmd = &cobra.Command{
	Use:   "cropctl",
	Short: "Query crop recommendations, weather, and rainfall for a district",
}

var soil struct {
	n  float64
	p  float64
	k  float64
	ph float64
}

var predictCmd = &cobra.Command{
	Use:   "predict <district>",
	Short: "Per-season top-3 crop recommendations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, argv []string) error {
		adv, err := buildAdvisor()
		if err != nil {
			return err
		}

		req := advisor.RecommendRequest{District: argv[0]}
		if cmd.Flags().Changed("n") {
			req.N = &soil.n
		}
		if cmd.Flags().Changed("p") {
			req.P = &soil.p
		}
		if cmd.Flags().Changed("k") {
			req.K = &soil.k
		}
		if cmd.Flags().Changed("ph") {
			req.PH = &soil.ph
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		res := adv.Recommend(ctx, req)
		if len(res) == 0 {
			return fmt.Errorf("no recommendations for %q: unknown district or no climate data", argv[0])
		}
		return printJSON(res)
	},
}

var weatherCmd = &cobra.Command{
	Use:   "weather <district>",
	Short: "Historical seasonal temperature, humidity, and rainfall",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, argv []string) error {
		adv, err := buildAdvisor()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		w, err := adv.SeasonalWeather(ctx, argv[0])
		if err != nil {
			return err
		}
		return printJSON(w)
	},
}

var rainfallCmd = &cobra.Command{
	Use:   "rainfall <district>",
	Short: "Tabulated seasonal rainfall",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, argv []string) error {
		adv, err := buildAdvisor()
		if err != nil {
			return err
		}

		out := make(map[season.Season]string, 3)
		for _, s := range season.All() {
			if mm, ok := adv.Rainfall(argv[0], s); ok {
				out[s] = advisor.FormatRainfall(mm)
			} else {
				out[s] = "no data"
			}
		}
		return printJSON(out)
	},
}

func buildAdvisor() (*advisor.Advisor, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.BuildAdvisor(cfg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	log.SetFlags(log.Ltime | log.Lmsgprefix)
	log.SetPrefix("[cropctl] ")

	predictCmd.Flags().Float64Var(&soil.n, "n", advisor.DefaultN, "soil nitrogen")
	predictCmd.Flags().Float64Var(&soil.p, "p", advisor.DefaultP, "soil phosphorus")
	predictCmd.Flags().Float64Var(&soil.k, "k", advisor.DefaultK, "soil potassium")
	predictCmd.Flags().Float64Var(&soil.ph, "ph", advisor.DefaultPH, "soil pH")

	rootCmd.AddCommand(predictCmd, weatherCmd, rainfallCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
