package output

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// numBuckets is the number of value-magnitude buckets per letter.
const numBuckets = 8

// LetterHistogram counts numeric words per (letter, magnitude bucket).
// Index 0 is letter 'A'.
type LetterHistogram [26][numBuckets]uint32

var bucketLabels = []string{"<0", "0", "(0,1]", "(1,10]", "(10,100]", "(100,1k]", "(1k,10k]", ">10k"}

// ValueBucket maps a numeric word value to its magnitude bucket.
func ValueBucket(v float64) int {
	switch {
	case v < 0:
		return 0
	case v == 0:
		return 1
	case v <= 1:
		return 2
	case v <= 10:
		return 3
	case v <= 100:
		return 4
	case v <= 1000:
		return 5
	case v <= 10000:
		return 6
	default:
		return 7
	}
}

// Add records one numeric word for the given address letter.
func (h *LetterHistogram) Add(letter byte, v float64) {
	if letter >= 'a' && letter <= 'z' {
		letter &^= 0x20
	}
	if letter < 'A' || letter > 'Z' {
		return
	}
	h[letter-'A'][ValueBucket(v)]++
}

// PlotHeatmap creates an interactive heatmap of word values by address
// letter and magnitude bucket.
func PlotHeatmap(hist *LetterHistogram, filename string) error {
	var heatmapData []opts.HeatMapData
	var maxCount uint32
	for x := 0; x < 26; x++ {
		for y := 0; y < len(bucketLabels); y++ {
			count := hist[x][y]
			if count > maxCount {
				maxCount = count
			}
			if count > 0 {
				label := fmt.Sprintf("%c %s", 'A'+x, bucketLabels[y])
				heatmapData = append(heatmapData, opts.HeatMapData{
					Value: [3]interface{}{x, y, count},
					Name:  label, // This appears in tooltip via {b}
				})
			}
		}
	}

	heatmap := charts.NewHeatMap()
	heatmap.SetGlobalOptions(

		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       "G-code Word Heatmap",
			Width:           "180vh",
			Height:          "100vh",
			Theme:           types.ThemeVintage,
			BackgroundColor: "transparent",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Word Distribution by Address Letter and Value Magnitude",
			Left:  "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Trigger: "item",
			Formatter: opts.FuncOpts(`function (params) {
		return params.name + '<br />Count: ' + params.value[2];
	}`),
		}),

		charts.WithVisualMapOpts(opts.VisualMap{
			Show: opts.Bool(true),
			Min:  0,
			Max:  float32(maxCount),
			InRange: &opts.VisualMapInRange{
				Color: []string{"#ffff8f", "#ff0000", "#000000"},
			},
			Orient: "vertical",
			Right:  "5%",
			Top:    "middle",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Address Letter",
			Type: "category",
			Data: letterAxis(),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Value Magnitude",
			Type: "category",
			Data: bucketLabels,
		}),
	)

	heatmap.AddSeries("Heatmap", heatmapData)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(heatmap)

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create heatmap file %s: %w", filename, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("rendering heatmap: %w", err)
	}

	fmt.Printf("Heatmap saved to %s\n", filename)
	return nil
}

// letterAxis returns the category axis ["A".."Z"]
func letterAxis() []string {
	r := make([]string, 26)
	for i := range r {
		r[i] = string(rune('A' + i))
	}
	return r
}
