// Package gpkg reads feature databases stored as OGC GeoPackages.
//
// A GeoPackage is a SQLite file whose gpkg_contents table lists the
// feature and attribute tables it holds. Open accepts either the .gpkg
// file itself or a directory containing one, so an unpacked export that
// keeps the database next to sidecar files works unchanged.
package gpkg

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/agentstation/geomanifest/pkg/crs"
	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/gdb"
)

// Extension is the file extension of a GeoPackage.
const Extension = ".gpkg"

// Database is an open GeoPackage.
type Database struct {
	db   *sql.DB
	path string
}

var _ gdb.Reader = (*Database)(nil)

// Open opens the GeoPackage at path. It satisfies gdb.Opener.
func Open(ctx context.Context, path string) (gdb.Reader, error) {
	file, err := Locate(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, errors.WrapResource("open", "database", path, err)
	}

	d := &Database{db: db, path: file}
	if err := d.check(ctx); err != nil {
		db.Close()
		return nil, errors.WrapResource("open", "database", path, err)
	}
	return d, nil
}

// Locate resolves path to a GeoPackage file. A directory resolves to the
// first .gpkg file it contains in name order.
func Locate(path string) (string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", errors.NewNotFoundError("database", path)
	}
	if err != nil {
		return "", errors.WrapIO("stat", path, err)
	}
	if !info.IsDir() {
		return path, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", errors.WrapIO("read", path, err)
	}
	var found []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), Extension) {
			found = append(found, e.Name())
		}
	}
	if len(found) == 0 {
		return "", errors.NewResourceError("open", "database", path,
			fmt.Errorf("no %s file in directory", Extension))
	}
	sort.Strings(found)
	return filepath.Join(path, found[0]), nil
}

func (d *Database) check(ctx context.Context) error {
	var n int
	row := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'gpkg_contents'`)
	if err := row.Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: not a GeoPackage (gpkg_contents missing)", errors.ErrUnsupported)
	}
	return nil
}

// Path returns the resolved GeoPackage file.
func (d *Database) Path() string { return d.path }

// Layers lists feature and attribute tables in table-name order.
func (d *Database) Layers(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT table_name FROM gpkg_contents
		 WHERE data_type IN ('features', 'attributes')
		 ORDER BY table_name`)
	if err != nil {
		return nil, errors.WrapResource("list", "layers", d.path, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.WrapResource("list", "layers", d.path, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Layer describes the named table. Schema, count and CRS are read eagerly;
// records are streamed on demand.
func (d *Database) Layer(ctx context.Context, name string) (gdb.LayerSource, error) {
	var (
		dataType               string
		minX, minY, maxX, maxY sql.NullFloat64
		srsID                  sql.NullInt64
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT data_type, min_x, min_y, max_x, max_y, srs_id
		 FROM gpkg_contents WHERE table_name = ?`, name).
		Scan(&dataType, &minX, &minY, &maxX, &maxY, &srsID)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("layer", name)
	}
	if err != nil {
		return nil, err
	}

	l := &layer{db: d.db, info: gdb.LayerInfo{Name: name}}

	if dataType == "features" {
		if err := d.geometry(ctx, l, &srsID); err != nil {
			return nil, err
		}
		if minX.Valid && minY.Valid && maxX.Valid && maxY.Valid {
			b := crs.Bounds{MinX: minX.Float64, MinY: minY.Float64, MaxX: maxX.Float64, MaxY: maxY.Float64}
			if !b.IsZero() {
				l.info.Bounds = &b
			}
		}
		if srsID.Valid {
			def, err := d.spatialRef(ctx, srsID.Int64)
			if err != nil {
				return nil, err
			}
			l.info.CRS = def
		}
	}

	if err := d.columns(ctx, l); err != nil {
		return nil, err
	}

	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quote(name)).Scan(&l.info.FeatureCount); err != nil {
		return nil, err
	}
	return l, nil
}

func (d *Database) geometry(ctx context.Context, l *layer, srsID *sql.NullInt64) error {
	var (
		column, typeName string
		z                int
		colSRS           sql.NullInt64
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT column_name, geometry_type_name, z, srs_id
		 FROM gpkg_geometry_columns WHERE table_name = ?`, l.info.Name).
		Scan(&column, &typeName, &z, &colSRS)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	l.geomColumn = column
	l.info.GeometryType = typeName
	// z is 0 (prohibited), 1 (mandatory) or 2 (optional).
	l.info.HasZ = z > 0
	if colSRS.Valid {
		*srsID = colSRS
	}
	return nil
}

func (d *Database) spatialRef(ctx context.Context, id int64) (crs.Definition, error) {
	var (
		org        sql.NullString
		code       sql.NullInt64
		definition sql.NullString
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT organization, organization_coordsys_id, definition
		 FROM gpkg_spatial_ref_sys WHERE srs_id = ?`, id).
		Scan(&org, &code, &definition)
	if err == sql.ErrNoRows {
		return crs.Definition{}, nil
	}
	if err != nil {
		return crs.Definition{}, err
	}

	def := crs.Definition{Organization: strings.ToUpper(org.String), Code: int(code.Int64)}
	if wkt := strings.TrimSpace(definition.String); wkt != "" && !strings.EqualFold(wkt, "undefined") {
		def.WKT = wkt
	}
	// srs_id 0 and -1 are the reserved "undefined" systems.
	if def.Code <= 0 {
		def.Code = 0
	}
	return def, nil
}

func (d *Database) columns(ctx context.Context, l *layer) error {
	rows, err := d.db.QueryContext(ctx, "PRAGMA table_info("+quote(l.info.Name)+")")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if name == l.geomColumn {
			continue
		}
		// The integer primary key is the feature id, not an attribute.
		if pk == 1 && strings.EqualFold(typ, "INTEGER") {
			continue
		}
		l.info.Columns = append(l.info.Columns, gdb.Column{Name: name, Type: typ})
	}
	return rows.Err()
}

// Close closes the underlying database handle.
func (d *Database) Close() error {
	return d.db.Close()
}

type layer struct {
	db         *sql.DB
	info       gdb.LayerInfo
	geomColumn string
}

func (l *layer) Info() gdb.LayerInfo { return l.info }

func (l *layer) Records(ctx context.Context, fn func(gdb.Record) error) error {
	if len(l.info.Columns) == 0 {
		return nil
	}

	cols := make([]string, len(l.info.Columns))
	for i, c := range l.info.Columns {
		cols[i] = quote(c.Name)
	}
	rows, err := l.db.QueryContext(ctx,
		"SELECT "+strings.Join(cols, ", ")+" FROM "+quote(l.info.Name))
	if err != nil {
		return err
	}
	defer rows.Close()

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		rec := make(gdb.Record, len(cols))
		for i, c := range l.info.Columns {
			rec[c.Name] = normalize(values[i])
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// normalize maps driver values onto the gdb.Record value set.
func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		out := make([]byte, len(x))
		copy(out, x)
		return out
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
