package rasterkit

import (
	"database/sql"
	"fmt"
	"os"
	"slices"

	"github.com/wgdzlh/rasterkit/log"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
)

// 矢量化得到的一个连通区域
type Region struct {
	Label    int64
	Geometry orb.Geometry
}

func (r Region) Area() float64 {
	return planar.Area(r.Geometry)
}

// 矢量表，列为(label, geometry)
type VectorTable struct {
	Crs  string
	Rows []Region
}

func (t *VectorTable) Len() int {
	return len(t.Rows)
}

func (t *VectorTable) Columns() []string {
	return []string{FIELD_LABEL, FIELD_GEOMETRY}
}

// 去重后的标签，升序
func (t *VectorTable) Labels() (labels []int64) {
	seen := map[int64]struct{}{}
	for _, r := range t.Rows {
		if _, ok := seen[r.Label]; !ok {
			seen[r.Label] = struct{}{}
			labels = append(labels, r.Label)
		}
	}
	slices.Sort(labels)
	return
}

// 各标签对应的区域数
func (t *VectorTable) CountByLabel() map[int64]int {
	ret := map[int64]int{}
	for _, r := range t.Rows {
		ret[r.Label]++
	}
	return ret
}

func (t *VectorTable) Bound() (b orb.Bound) {
	for i, r := range t.Rows {
		if i == 0 {
			b = r.Geometry.Bound()
			continue
		}
		b = b.Union(r.Geometry.Bound())
	}
	return
}

func (t *VectorTable) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range t.Rows {
		f := geojson.NewFeature(r.Geometry)
		f.Properties[FIELD_LABEL] = r.Label
		fc.Append(f)
	}
	return fc
}

func (t *VectorTable) GeoJSON() ([]byte, error) {
	return t.FeatureCollection().MarshalJSON()
}

// 写出GeoJSON文件
func (t *VectorTable) SaveGeoJSON(path string) (err error) {
	data, err := t.GeoJSON()
	if err != nil {
		return
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return
	}
	log.Info("VectorTable: saved geojson", zap.String("path", path), zap.Int("rows", len(t.Rows)))
	return
}

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS metadata (name TEXT PRIMARY KEY, value TEXT);
CREATE TABLE IF NOT EXISTS regions (id INTEGER PRIMARY KEY, label INTEGER NOT NULL, area REAL, geometry BLOB NOT NULL);
CREATE INDEX IF NOT EXISTS regions_label ON regions (label);`
	sqliteClear = `DELETE FROM regions; DELETE FROM metadata;`
)

// 将矢量表写入SQLite文件（几何以WKB存储），已有数据会被覆盖
func (t *VectorTable) SaveSqlite(path string) (err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return
	}
	defer db.Close()
	if _, err = db.Exec(sqliteSchema); err != nil {
		return
	}
	tx, err := db.Begin()
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	if _, err = tx.Exec(sqliteClear); err != nil {
		return
	}
	if _, err = tx.Exec(`INSERT INTO metadata (name, value) VALUES (?, ?), (?, ?)`,
		"crs", t.Crs, "columns", fmt.Sprintf("%s,%s", FIELD_LABEL, FIELD_GEOMETRY)); err != nil {
		return
	}
	stmt, err := tx.Prepare(`INSERT INTO regions (id, label, area, geometry) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return
	}
	defer stmt.Close()
	var raw []byte
	for i, r := range t.Rows {
		if raw, err = wkb.Marshal(r.Geometry); err != nil {
			return
		}
		if _, err = stmt.Exec(i+1, r.Label, r.Area(), raw); err != nil {
			return
		}
	}
	if err = tx.Commit(); err != nil {
		return
	}
	log.Info("VectorTable: saved sqlite", zap.String("path", path), zap.Int("rows", len(t.Rows)))
	return
}

// 从SQLite文件读回矢量表
func LoadSqlite(path string) (t *VectorTable, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return
	}
	defer db.Close()
	t = &VectorTable{}
	if err = db.QueryRow(`SELECT value FROM metadata WHERE name = ?`, "crs").Scan(&t.Crs); err != nil && err != sql.ErrNoRows {
		return
	}
	rows, err := db.Query(`SELECT label, geometry FROM regions ORDER BY id`)
	if err != nil {
		return
	}
	defer rows.Close()
	for rows.Next() {
		var (
			r   Region
			raw []byte
		)
		if err = rows.Scan(&r.Label, &raw); err != nil {
			return
		}
		if r.Geometry, err = wkb.Unmarshal(raw); err != nil {
			return
		}
		t.Rows = append(t.Rows, r)
	}
	err = rows.Err()
	return
}
