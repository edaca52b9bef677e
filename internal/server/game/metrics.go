package game

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "junqi/internal/server/game"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// metrics 没有配置 provider 时全局 meter 是空实现，计数不产生开销。
type metrics struct {
	moves    metric.Int64Counter
	searches metric.Int64Counter
	nodes    metric.Int64Counter
	latency  metric.Float64Histogram
	finished metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := meter()
	var (
		out metrics
		err error
	)
	out.moves, err = m.Int64Counter("junqi.moves.applied",
		metric.WithDescription("Moves applied to live games"))
	if err != nil {
		return nil, fmt.Errorf("creating moves counter: %w", err)
	}
	out.searches, err = m.Int64Counter("junqi.bot.searches",
		metric.WithDescription("Bot searches run"))
	if err != nil {
		return nil, fmt.Errorf("creating searches counter: %w", err)
	}
	out.nodes, err = m.Int64Counter("junqi.search.nodes",
		metric.WithDescription("Nodes visited by bot searches"))
	if err != nil {
		return nil, fmt.Errorf("creating nodes counter: %w", err)
	}
	out.latency, err = m.Float64Histogram("junqi.search.latency",
		metric.WithDescription("Wall time of one bot decision"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("creating latency histogram: %w", err)
	}
	out.finished, err = m.Int64Counter("junqi.games.finished",
		metric.WithDescription("Games that reached the finished phase"))
	if err != nil {
		return nil, fmt.Errorf("creating finished counter: %w", err)
	}
	return &out, nil
}
