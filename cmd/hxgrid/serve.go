package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/pthm/hxgrid"
	"github.com/pthm/hxgrid/lib/attrs"
	"github.com/pthm/hxgrid/lib/summary"
)

const editURL = "/orders/edit"

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr, static string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo order grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts, addr, static)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&static, "static", "/static", "base URL of the grid client files")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, addr, static string) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := hxgrid.LoadConfig(opts.envFiles...)
	if err != nil {
		return err
	}
	metrics, err := hxgrid.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	reg, err := hxgrid.NewRegistry(ctx, cfg, hxgrid.WithLogger(logger), hxgrid.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer reg.Close()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	grid := ordersGrid(db)
	if err := reg.Add(grid); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(reg, grid, db, static, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", addr), slog.String("grid_prefix", reg.Config().Prefix))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func newRouter(reg *hxgrid.Registry, grid *hxgrid.Grid[Order], db *sql.DB, static string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hxgrid.AssetsMiddleware(static))

	r.Handle(reg.Config().Prefix+"/*", reg.Handler())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if err := renderPage(w, r, grid); err != nil {
			logger.Error("render page", slog.Any("error", err))
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
	})
	r.Post(editURL, func(w http.ResponseWriter, r *http.Request) {
		if !hxgrid.IsHTMX(r) {
			http.Error(w, "Forbidden: HTMX request required", http.StatusForbidden)
			return
		}
		edit, err := hxgrid.ParseEdit(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if edit.Attribute != "customer" || edit.Value == "" {
			http.Error(w, "Only non-empty customer names can be edited", http.StatusBadRequest)
			return
		}
		if err := updateCustomer(r.Context(), db, edit.Key, edit.Value); err != nil {
			if hxgrid.IsNotFound(err) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("HX-Trigger", hxgrid.TriggerHeader("kvGridEdited", map[string]any{
			"grid": grid.ID,
			"key":  edit.Key,
		}))
		id := grid.ID + "-" + hxgrid.Slugify(edit.Attribute) + "-" + hxgrid.Slugify(edit.Key)
		fmt.Fprint(w, attrs.Tag("div", attrs.Attrs{"id": id, "class": "kv-editable"}, edit.Value))
	})
	return r
}

// renderPage renders the grid first so the page head can link the bundles
// it required.
func renderPage(w http.ResponseWriter, r *http.Request, grid *hxgrid.Grid[Order]) error {
	var body bytes.Buffer
	if err := grid.Render(r.Context(), &body, hxgrid.ParamsFromRequest(r)); err != nil {
		return err
	}
	assets := hxgrid.AssetsFrom(r.Context())

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Orders</title>\n")
	if err := assets.CSS().Render(r.Context(), &page); err != nil {
		return err
	}
	page.WriteString("</head>\n<body hx-boost=\"true\">\n<main class=\"container\">\n")
	page.Write(body.Bytes())
	page.WriteString("\n</main>\n")
	if err := assets.JS().Render(r.Context(), &page); err != nil {
		return err
	}
	page.WriteString("</body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := w.Write(page.Bytes())
	return err
}

func ordersGrid(db *sql.DB) *hxgrid.Grid[Order] {
	customer := &hxgrid.EditableColumn[Order]{
		DataColumn: hxgrid.DataColumn[Order]{
			Attribute:  "customer",
			Value:      func(o Order) any { return o.Customer },
			Sortable:   true,
			Filterable: true,
		},
		EditURL: editURL,
	}
	amount := &hxgrid.DataColumn[Order]{
		ColumnBase: hxgrid.ColumnBase{
			Format:      "currency",
			PageSummary: hxgrid.SummaryFunc(summary.Sum),
		},
		Attribute: "amount",
		Value:     func(o Order) any { return o.Amount },
		Sortable:  true,
	}
	tax := &hxgrid.FormulaColumn[Order]{
		ColumnBase: hxgrid.ColumnBase{
			Label:       "Tax",
			Format:      "currency",
			PageSummary: hxgrid.SummaryFunc(summary.Sum),
		},
		Formula: func(r *hxgrid.FormulaRow[Order]) (any, error) {
			v := cast.ToFloat64(r.Col(4)) * 0.2
			return v, r.Err()
		},
	}

	return &hxgrid.Grid[Order]{
		ID: "orders",
		Columns: []hxgrid.Column[Order]{
			&hxgrid.CheckboxColumn[Order]{RowHighlight: true},
			&hxgrid.SerialColumn[Order]{},
			customer,
			&hxgrid.DataColumn[Order]{
				Attribute:  "region",
				Value:      func(o Order) any { return o.Region },
				Sortable:   true,
				Filterable: true,
			},
			amount,
			tax,
			&hxgrid.BooleanColumn[Order]{
				DataColumn: hxgrid.DataColumn[Order]{
					Attribute: "paid",
					Value:     func(o Order) any { return o.Paid },
				},
			},
			&hxgrid.DataColumn[Order]{
				Attribute: "placed",
				Value:     func(o Order) any { return o.Placed },
				Sortable:  true,
			},
			&hxgrid.ActionColumn[Order]{
				Template: "{view}",
				URLFor: func(action string, _ Order, key string) string {
					return "/orders/" + key + "?action=" + action
				},
			},
		},
		Provider:        orderProvider(db),
		Key:             func(o Order) string { return strconv.Itoa(o.ID) },
		Caption:         "Orders",
		Panel:           &hxgrid.Panel{Type: "primary", Heading: "Orders"},
		Striped:         true,
		Hover:           true,
		ShowPageSummary: true,
		PageSize:        5,
		Pjax:            true,
		Resizable:       true,
		Export:          &hxgrid.Export{Filename: "orders", ServerExport: true},
		ToggleData:      hxgrid.DefaultToggleData(),
		Options:         attrs.Attrs{"class": "orders-grid"},
	}
}
