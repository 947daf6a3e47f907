package main

import (
	"log"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/gofluor/io"
	"github.com/phil-mansfield/gofluor/stats"
)

var colors = []string{"k", "g", "darkkhaki", "r", "b", "m", "c", "y"}

// writeAndPlot writes a group of series sharing x values to fname.txt and
// queues a plot of them to be saved at fname.png.
func writeAndPlot(fname string, group []stats.Series, logX bool) {
	if err := io.WriteSeries(fname+".txt", group); err != nil {
		log.Fatal(err.Error())
	}

	plt.Figure(plt.FigSize(8, 6))
	for i, s := range group {
		color := colors[i%len(colors)]
		if len(s.X) == 1 {
			plt.Plot(s.X, s.Y, "o", plt.C(color))
		} else {
			plt.Plot(s.X, s.Y, plt.LW(2), plt.C(color))
		}
	}

	plt.Title(group[0].Title)
	plt.XLabel(group[0].XLabel, plt.FontSize(16))
	plt.YLabel(group[0].YLabel, plt.FontSize(16))
	if logX {
		plt.XScale("log")
	}
	plt.Grid(plt.Axis("y"))
	plt.Grid(plt.Axis("x"), plt.Which("both"))
	plt.SaveFig(fname + ".png")
}
