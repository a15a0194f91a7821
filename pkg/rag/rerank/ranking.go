package rerank

import (
	"fmt"

	"ai-masterbrain-be/pkg/llm"
)

// rankingParse is the outcome of reading a model's ranking reply.
type rankingParse struct {
	Indices []int
	Err     error
}

type rankingReply struct {
	Ranking []int `json:"ranking"`
	Ranked  []int `json:"ranked"`
}

// parseRanking accepts {"ranking": [...]}, {"ranked": [...]} or a bare array.
func parseRanking(raw string) rankingParse {
	if indices, err := llm.DecodeJSON[[]int](raw); err == nil {
		return rankingParse{Indices: indices}
	}

	reply, err := llm.DecodeJSON[rankingReply](raw)
	if err != nil {
		return rankingParse{Err: fmt.Errorf("decode ranking: %w", err)}
	}
	if len(reply.Ranking) > 0 {
		return rankingParse{Indices: reply.Ranking}
	}
	return rankingParse{Indices: reply.Ranked}
}
