package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"seta-admin-backend/config"
	"seta-admin-backend/internal/db"
	"seta-admin-backend/internal/listing"
	"seta-admin-backend/internal/parse"
	"seta-admin-backend/internal/store"
)

type listOptions struct {
	search  string
	filters []string
	from    string
	to      string
	sort    string
	desc    bool
	page    int
}

var listOpts listOptions

// listCmd renders a view offline from the persisted snapshots.
var listCmd = &cobra.Command{
	Use:   "list <view>",
	Short: "Render one page of a view from the local snapshots",
	Long: `Run the list pipeline (search, filter, sort, paginate, project) against the
snapshots persisted by the last successful fetches and print the page as JSON.

Example:
  setadmind list students --q thandi --filter status=active --sort surname --desc`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()
		return runList(cmd.Context(), cfg, log, args[0], listOpts, cmd.OutOrStdout())
	},
}

func init() {
	f := listCmd.Flags()
	f.StringVar(&listOpts.search, "q", "", "Free-text search term")
	f.StringArrayVar(&listOpts.filters, "filter", nil, "Exact-match filter as field=value (repeatable)")
	f.StringVar(&listOpts.from, "from", "", "Earliest date of the view's date field")
	f.StringVar(&listOpts.to, "to", "", "Latest date of the view's date field (inclusive)")
	f.StringVar(&listOpts.sort, "sort", "", "Field to sort by (default: the view's default sort)")
	f.BoolVar(&listOpts.desc, "desc", false, "Sort descending")
	f.IntVar(&listOpts.page, "page", 1, "Page number")
}

func runList(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, name string, opts listOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	views, err := cfg.ListingViews()
	if err != nil {
		return err
	}
	var view *listing.View
	for i := range views {
		if views[i].Name == name {
			view = &views[i]
			break
		}
	}
	if view == nil {
		return fmt.Errorf("unknown view %q", name)
	}

	st, err := opts.state(*view)
	if err != nil {
		return err
	}

	gormDB, err := db.Init(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	snapshots, err := store.NewGormStore(gormDB).LoadSnapshots(ctx)
	if err != nil {
		if snapshots == nil {
			return err
		}
		log.Warnw("some snapshots could not be read", "error", err)
	}

	collections := make(map[string][]listing.Record, len(snapshots))
	for _, snap := range snapshots {
		collections[snap.Name] = snap.Records
	}
	if _, ok := collections[name]; !ok {
		log.Warnw("no snapshot for view yet, run serve with upstream sync enabled first", "view", name)
	}

	result := listing.Execute(*view, collections[name], collections, st)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func (o listOptions) state(v listing.View) (listing.ViewState, error) {
	st := *listing.NewViewState(v)
	st.SetSearch(strings.TrimSpace(o.search))

	for _, raw := range o.filters {
		field, value, ok := strings.Cut(raw, "=")
		if !ok {
			return st, fmt.Errorf("filter %q must be field=value", raw)
		}
		if !v.AllowsFilter(field) {
			return st, fmt.Errorf("view %s cannot be filtered by %s", v.Name, field)
		}
		st.SetFilter(field, value)
	}

	from, err := optionalDate(o.from)
	if err != nil {
		return st, fmt.Errorf("--from: %w", err)
	}
	to, err := optionalDate(o.to)
	if err != nil {
		return st, fmt.Errorf("--to: %w", err)
	}
	if (from != nil || to != nil) && v.DateField == "" {
		return st, fmt.Errorf("view %s has no date field", v.Name)
	}
	st.SetDateRange(from, to)

	if o.sort != "" || o.desc {
		field := o.sort
		if field == "" && st.Sort != nil {
			field = st.Sort.Field
		}
		if field != "" {
			dir := listing.Asc
			if o.desc {
				dir = listing.Desc
			}
			st.Sort = &listing.SortSpec{Field: field, Direction: dir}
		}
	}

	st.SetPage(o.page)
	return st, nil
}

func optionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := parse.Date(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
