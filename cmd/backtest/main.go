package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"tradesim/internal/backtest"
	"tradesim/internal/config"
	"tradesim/internal/marketdata"
	"tradesim/internal/model"
	"tradesim/internal/risk"
	"tradesim/internal/strategy"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.App{
		Name:  "backtest",
		Usage: "run trading strategy backtests against historical data",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "symbol", Value: "AAPL", Usage: "ticker symbol"},
			&cli.StringFlag{
				Name:  "strategy",
				Value: "sma_cross",
				Usage: "strategy id (" + strings.Join(strategy.IDs(), ", ") + ")",
			},
			&cli.IntFlag{Name: "days", Value: 365, Usage: "days of history"},
			&cli.Float64Flag{Name: "capital", Value: 100000, Usage: "initial capital"},
			&cli.BoolFlag{Name: "compare", Usage: "compare all strategies on the symbol"},
			&cli.BoolFlag{Name: "risk", Usage: "enable risk-managed sizing"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	market := marketdata.NewClient(marketdata.ClientOptions{
		APIKey:         cfg.MarketAPIKey,
		BaseURL:        cfg.MarketBaseURL,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	symbol := c.String("symbol")
	candles, err := market.GetHistoricalCandles(ctx, symbol, "1day", c.Int("days"))
	if err != nil {
		return fmt.Errorf("fetching history for %s: %w", symbol, err)
	}
	fmt.Printf("Data fetched: %d candles for %s\n\n", len(candles), symbol)

	if c.Bool("compare") {
		return compareStrategies(cfg, candles, symbol, c.Float64("capital"))
	}

	result, err := runBacktest(cfg, candles, c.String("strategy"), c.Float64("capital"), c.Bool("risk"))
	if err != nil {
		return err
	}
	printResult(c.String("strategy"), symbol, result)
	return nil
}

func runBacktest(cfg *config.Config, candles []model.Candle, strategyID string, capital float64, managed bool) (*model.BacktestResult, error) {
	engine := backtest.NewEngine(capital)
	if managed {
		engine.SetPolicy(backtest.RiskManagedSizing{
			Manager: risk.NewManager(risk.Config{
				InitialCapital:  capital,
				MaxPositionSize: cfg.MaxPositionSize,
				StopLossPct:     cfg.StopLossPct,
				TakeProfitPct:   cfg.TakeProfitPct,
				MaxDrawdownPct:  cfg.MaxDrawdownPct,
			}),
		})
	}
	return engine.Run(candles, strategyID, nil)
}

func compareStrategies(cfg *config.Config, candles []model.Candle, symbol string, capital float64) error {
	fmt.Printf("%-12s %12s %8s %10s %8s %10s\n", "Strategy", "Return", "Trades", "Win Rate", "Sharpe", "Max DD")
	fmt.Println(strings.Repeat("-", 66))

	for _, id := range strategy.IDs() {
		result, err := runBacktest(cfg, candles, id, capital, false)
		if err != nil {
			return fmt.Errorf("running %s on %s: %w", id, symbol, err)
		}
		fmt.Printf("%-12s %11.2f%% %8d %9.2f%% %8.2f %9.2f%%\n",
			id, result.TotalReturn, result.TotalTrades, result.WinRate,
			result.SharpeRatio, result.MaxDrawdown)
	}
	return nil
}

func printResult(strategyID, symbol string, result *model.BacktestResult) {
	fmt.Printf("===== BACKTEST RESULTS: %s on %s =====\n", strategyID, symbol)
	fmt.Printf("Initial Capital:  $%.2f\n", result.InitialCapital)
	fmt.Printf("Final Value:      $%.2f\n", result.FinalValue)
	fmt.Printf("Total Return:     %.2f%%\n", result.TotalReturn)
	fmt.Printf("Total Trades:     %d\n", result.TotalTrades)
	fmt.Printf("Win Rate:         %.2f%%\n", result.WinRate)
	fmt.Printf("Max Drawdown:     %.2f%%\n", result.MaxDrawdown)
	fmt.Printf("Sharpe Ratio:     %.2f\n", result.SharpeRatio)

	if len(result.Trades) == 0 {
		return
	}

	fmt.Println("\nRecent trades:")
	fmt.Printf("%-5s %-12s %10s %8s %12s %12s\n", "Type", "Date", "Price", "Shares", "Value", "Profit")
	start := len(result.Trades) - 10
	if start < 0 {
		start = 0
	}
	for _, t := range result.Trades[start:] {
		profit := "-"
		if t.Side == model.SideSell {
			profit = fmt.Sprintf("$%.2f", t.Profit)
		}
		fmt.Printf("%-5s %-12s %10.2f %8d %12.2f %12s\n",
			t.Side, t.Timestamp.Format("2006-01-02"), t.Price, t.Shares, t.Value, profit)
	}
}
