package handlers

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/expr-lang/expr"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/btouchard/beacon/internal/event"
)

// topWordCount bounds the frequency list text_analyze returns.
const topWordCount = 5

// SystemInfo returns a handler that reports where the server runs and
// how busy the event bus is.
func SystemInfo(version string, startedAt time.Time, bus *event.Bus) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		host, _ := os.Hostname()

		return jsonResult(map[string]any{
			"name":           "Beacon",
			"version":        version,
			"host":           host,
			"os":             runtime.GOOS,
			"arch":           runtime.GOARCH,
			"go_version":     runtime.Version(),
			"pid":            os.Getpid(),
			"started_at":     startedAt.UTC().Format(time.RFC3339),
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
			"metrics":        bus.Metrics(),
		}), nil
	}
}

// Calculate returns a handler that evaluates an arithmetic expression.
// Expressions run in an empty environment: there is nothing to call or
// read beyond the literals in the expression itself.
func Calculate() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		expression, _ := args["expression"].(string)
		if expression == "" {
			return mcp.NewToolResultError("expression is required"), nil
		}

		program, err := expr.Compile(expression)
		if err != nil {
			return jsonError(fmt.Errorf("invalid expression: %w", err)), nil
		}
		out, err := expr.Run(program, nil)
		if err != nil {
			return jsonError(fmt.Errorf("evaluating expression: %w", err)), nil
		}

		return jsonResult(map[string]any{"expression": expression, "result": out}), nil
	}
}

// TextAnalyze returns a handler that computes basic statistics over a
// piece of text: counts, average word length, and the most frequent
// words longer than three characters.
func TextAnalyze() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()

		text, _ := args["text"].(string)
		if text == "" {
			return mcp.NewToolResultError("text is required"), nil
		}

		words := strings.Fields(text)

		runeTotal := 0
		freq := make(map[string]int)
		for _, w := range words {
			runeTotal += utf8.RuneCountInString(w)
			key := strings.ToLower(strings.TrimFunc(w, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r)
			}))
			if utf8.RuneCountInString(key) > 3 {
				freq[key]++
			}
		}

		avg := 0.0
		if len(words) > 0 {
			avg = math.Round(float64(runeTotal)/float64(len(words))*100) / 100
		}

		return jsonResult(map[string]any{
			"chars":           utf8.RuneCountInString(text),
			"words":           len(words),
			"lines":           strings.Count(text, "\n") + 1,
			"sentences":       countSentences(text),
			"avg_word_length": avg,
			"top_words":       topWords(freq),
		}), nil
	}
}

// countSentences counts runs of sentence terminators, so "Wait..." is
// one sentence, not three. Trailing unterminated text is not counted.
func countSentences(text string) int {
	count := 0
	open := false
	for _, r := range text {
		switch {
		case r == '.' || r == '!' || r == '?':
			if open {
				count++
				open = false
			}
		case !unicode.IsSpace(r):
			open = true
		}
	}
	return count
}

type wordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

func topWords(freq map[string]int) []wordCount {
	ranked := make([]wordCount, 0, len(freq))
	for w, c := range freq {
		ranked = append(ranked, wordCount{Word: w, Count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Word < ranked[j].Word
	})
	if len(ranked) > topWordCount {
		ranked = ranked[:topWordCount]
	}
	return ranked
}
