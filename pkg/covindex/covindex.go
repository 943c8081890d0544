// Package covindex answers point queries on a coverage report: how many
// times did the byte at a given offset of a script run.
package covindex

import (
	"slices"
	"sort"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
	"github.com/Sumatoshi-tech/v8cov/pkg/rangetree"
)

// Index holds the range trees of every function of a report, grouped by
// script URL and sorted by root range.
type Index struct {
	scripts map[string][]*rangetree.Node
}

// Build indexes process. Functions without ranges are skipped. The report
// is not retained.
func Build(process coverage.ProcessCov) *Index {
	idx := &Index{scripts: make(map[string][]*rangetree.Node, len(process.Result))}

	for _, script := range process.Result {
		trees := idx.scripts[script.URL]

		for fnIdx := range script.Functions {
			ranges := slices.Clone(script.Functions[fnIdx].Ranges)
			slices.SortStableFunc(ranges, coverage.CompareRanges)

			tree := rangetree.FromSortedRanges(ranges)
			if tree == nil {
				continue
			}

			trees = append(trees, tree)
		}

		idx.scripts[script.URL] = trees
	}

	for url, trees := range idx.scripts {
		slices.SortStableFunc(trees, func(a, b *rangetree.Node) int {
			return coverage.CompareSpans(a.Span(), b.Span())
		})

		idx.scripts[url] = trees
	}

	return idx
}

// URLs returns the indexed script URLs in ascending order.
func (idx *Index) URLs() []string {
	urls := make([]string, 0, len(idx.scripts))
	for url := range idx.scripts {
		urls = append(urls, url)
	}

	slices.Sort(urls)

	return urls
}

// Functions returns the root spans of the functions of url, sorted by
// start then by descending end.
func (idx *Index) Functions(url string) []coverage.Span {
	trees := idx.scripts[url]
	spans := make([]coverage.Span, 0, len(trees))

	for _, tree := range trees {
		spans = append(spans, tree.Span())
	}

	return spans
}

// CountAt returns the count of the innermost range containing offset in
// script url. When functions nest, the innermost function is used. It
// reports false when no function of the script covers offset.
func (idx *Index) CountAt(url string, offset int) (int64, bool) {
	tree := innermostFunction(idx.scripts[url], offset)
	if tree == nil {
		return 0, false
	}

	return countIn(tree, offset), true
}

// innermostFunction returns the function with the latest root in
// pre-order that contains offset. Root spans nest, so it is the innermost.
func innermostFunction(trees []*rangetree.Node, offset int) *rangetree.Node {
	// First function starting after offset.
	end := sort.Search(len(trees), func(i int) bool {
		return trees[i].Start > offset
	})

	for i := end - 1; i >= 0; i-- {
		if trees[i].Span().Contains(offset) {
			return trees[i]
		}
	}

	return nil
}

// countIn descends from node to the innermost range containing offset.
func countIn(node *rangetree.Node, offset int) int64 {
	for {
		children := node.Children

		next := sort.Search(len(children), func(i int) bool {
			return children[i].End > offset
		})
		if next == len(children) || children[next].Start > offset {
			return node.Count
		}

		node = children[next]
	}
}
