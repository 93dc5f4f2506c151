// Package charts renders dashboard.Chart descriptions as SVG.
//
// Bar, pie, line and scatter charts go through go-chart's chart types.
// Kinds go-chart has no type for (horizontal bars, funnels, grouped and
// stacked columns, bar-plus-rate combos and heatmaps) are drawn directly
// on go-chart's SVG renderer. A chart without data renders a "No data"
// panel instead of failing, so every chart id on a page always resolves
// to an image.
//
//	r := charts.NewRenderer(0, 0)
//	if err := r.Render(w, page.Charts[0]); err != nil {
//		return err
//	}
package charts
