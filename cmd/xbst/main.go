package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xbst/lib/infra"
	"github.com/benz9527/xbst/lib/tree"
	"github.com/benz9527/xbst/lib/xlog"
	"github.com/benz9527/xbst/observability"
)

type appConfig struct {
	policy  tree.DuplicatePolicy
	metrics observability.MetricsExporterType
	encoder xlog.LogEncoderType
	values  []int
	deletes []int
	level   *zapcore.Level
	out     io.Writer
	logOut  zapcore.WriteSyncer
}

// Context key of the run id, logged as "run".
const runContextKey = "xbst.run"

func parseInts(list []string) ([]int, error) {
	list = lo.Compact(lo.Map(list, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
	res := make([]int, 0, len(list))
	for _, s := range list {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, infra.WrapErrorStackWithMessage(err, "invalid integer "+strconv.Quote(s))
		}
		res = append(res, v)
	}
	return res, nil
}

func parseArgs(args []string, out io.Writer) (*appConfig, error) {
	fs := flag.NewFlagSet("xbst", flag.ContinueOnError)
	fs.SetOutput(out)
	policy := fs.String("policy", tree.DuplicateReject.String(), "duplicate policy, reject|right")
	deletes := fs.String("delete", "", "comma separated values to remove after insertion")
	metrics := fs.String("metrics", string(observability.NoneExporter), "metrics exporter, none|console|prometheus (prometheus prints one text scrape on exit)")
	logEnc := fs.String("log", "plain", "log encoder, plain|json")
	logLvl := fs.String("level", "", "log level, debug|info|warn|error, XLOG_LVL by default")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &appConfig{
		metrics: observability.MetricsExporterType(*metrics),
		out:     out,
		logOut:  zapcore.Lock(os.Stderr),
	}
	switch *policy {
	case tree.DuplicateReject.String():
		cfg.policy = tree.DuplicateReject
	case tree.DuplicateAllowRight.String():
		cfg.policy = tree.DuplicateAllowRight
	default:
		return nil, infra.NewErrorStack("unknown duplicate policy " + strconv.Quote(*policy))
	}
	switch *logEnc {
	case "plain":
		cfg.encoder = xlog.PlainText
	case "json":
		cfg.encoder = xlog.JSON
	default:
		return nil, infra.NewErrorStack("unknown log encoder " + strconv.Quote(*logEnc))
	}

	if len(*logLvl) > 0 {
		lvl, err := zapcore.ParseLevel(*logLvl)
		if err != nil {
			return nil, infra.WrapErrorStackWithMessage(err, "unknown log level "+strconv.Quote(*logLvl))
		}
		cfg.level = &lvl
	}

	var err error
	if cfg.values, err = parseInts(fs.Args()); err != nil {
		return nil, err
	}
	if len(*deletes) > 0 {
		if cfg.deletes, err = parseInts(strings.Split(*deletes, ",")); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newLogger(cfg *appConfig) xlog.XLogger {
	logger := xlog.NewXLogger(
		xlog.WithXLoggerWriteSyncer(cfg.logOut),
		xlog.WithXLoggerEncoder(cfg.encoder),
		xlog.WithXLoggerContextFieldExtract(runContextKey, "run"),
	)
	if cfg.level != nil {
		logger.IncreaseLogLevel(*cfg.level)
	}
	return logger
}

func newMetricsExporter(lc fx.Lifecycle, cfg *appConfig) (observability.ShutdownFunc, error) {
	shutdown, err := observability.InitMetricsExporter(
		cfg.metrics,
		observability.WithConsoleWriter(cfg.out),
	)
	if err != nil {
		return nil, err
	}
	if cfg.metrics != observability.NoneExporter {
		observability.InitAppStats("xbst")
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// One scrape on exit, nothing serves /metrics.
			if cfg.metrics == observability.PrometheusExporter {
				if err := observability.WritePrometheusMetrics(cfg.out); err != nil {
					return err
				}
			}
			return shutdown(ctx)
		},
	})
	return shutdown, nil
}

// The exporter is a dependency so the tree meter binds to the installed provider.
func newTree(cfg *appConfig, _ observability.ShutdownFunc) tree.BST[int] {
	return tree.NewInstrumentedBST[int]("cli", tree.NewBST[int](
		tree.WithBSTDuplicatePolicy[int](cfg.policy),
	))
}

func runTree(cfg *appConfig, logger xlog.XLogger, bst tree.BST[int]) error {
	ctx := context.WithValue(context.Background(), runContextKey, strconv.FormatInt(time.Now().UnixNano(), 36))
	accepted := bst.InsertAll(cfg.values...)
	logger.InfoContext(ctx, "values inserted",
		zap.Int("accepted", accepted),
		zap.Int("rejected", len(cfg.values)-accepted),
		zap.String("policy", bst.DuplicatePolicy().String()),
	)
	logger.InfoContext(ctx, "inorder", zap.Ints("values", bst.ToSlice()), zap.Int("height", bst.Height()))
	if err := bst.Print(cfg.out); err != nil {
		return infra.WrapErrorStack(err)
	}

	removed := 0
	for _, v := range cfg.deletes {
		if !bst.Remove(v) {
			logger.WarnContext(ctx, "value not found", zap.Int("value", v))
			continue
		}
		removed++
	}
	if len(cfg.deletes) > 0 {
		logger.Logf(zapcore.DebugLevel, "removed %d of %d values", removed, len(cfg.deletes))
		logger.InfoContext(ctx, "inorder after removal", zap.Ints("values", bst.ToSlice()), zap.Int64("len", bst.Len()))
		if _, err := fmt.Fprintln(cfg.out, "---"); err != nil {
			return infra.WrapErrorStack(err)
		}
		if err := bst.Print(cfg.out); err != nil {
			return infra.WrapErrorStack(err)
		}
	}

	if err := tree.Validate(bst); err != nil {
		logger.ErrorStackf(infra.WrapErrorStack(err), "tree validation failed, len %d", bst.Len())
		return err
	}
	logger.InfoContext(ctx, "tree validated", zap.Int64("len", bst.Len()))
	return nil
}

func newApp(cfg *appConfig) *fx.App {
	return fx.New(
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			newMetricsExporter,
			newTree,
		),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Invoke(runTree),
		fx.StartTimeout(5*time.Second),
		fx.StopTimeout(5*time.Second),
	)
}

func run(args []string, out io.Writer, logOut zapcore.WriteSyncer) error {
	cfg, err := parseArgs(args, out)
	if err != nil {
		return err
	}
	if logOut != nil {
		cfg.logOut = logOut
	}
	app := newApp(cfg)
	if err = app.Err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = app.Start(ctx); err != nil {
		return err
	}
	return app.Stop(ctx)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, nil); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
