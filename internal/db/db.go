// Package db persists the file registry and the question history in Postgres
// through bun.
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"document-qa/internal/config"
	"document-qa/internal/models"
)

// File is one ingested document in the registry. FileName is the user-chosen
// display name and is unique among stored files.
type File struct {
	bun.BaseModel `bun:"table:files,alias:f"`

	ID               string    `bun:"id,pk" json:"id"`
	FileName         string    `bun:"file_name,notnull,unique" json:"file_name"`
	OriginalFilename string    `bun:"original_filename,notnull" json:"original_filename"`
	FileType         string    `bun:"file_type,notnull" json:"file_type"`
	StoragePath      string    `bun:"storage_path,notnull" json:"-"`
	SizeBytes        int64     `bun:"size_bytes,notnull" json:"size_bytes"`
	NumPages         int       `bun:"num_pages" json:"num_pages"`
	NumChunks        int       `bun:"num_chunks,notnull" json:"num_chunks"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// History is one answered question with its context snapshot. The snapshot is
// owned by the entry and is unaffected by later chunk deletion.
type History struct {
	bun.BaseModel `bun:"table:history,alias:h"`

	ID        int64                `bun:"id,pk,autoincrement" json:"id"`
	Question  string               `bun:"question,notnull" json:"question"`
	Answer    string               `bun:"answer,notnull" json:"answer"`
	Sources   []models.ContextItem `bun:"sources,type:jsonb" json:"sources"`
	CreatedAt time.Time            `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*File)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	_, err := db.NewCreateTable().Model((*History)(nil)).IfNotExists().Exec(ctx)
	return err
}

func InsertFile(ctx context.Context, db *bun.DB, file *File) error {
	file.CreatedAt = time.Now().UTC()
	_, err := db.NewInsert().Model(file).Exec(ctx)
	return err
}

func ListFiles(ctx context.Context, db *bun.DB) ([]File, error) {
	var files []File
	err := db.NewSelect().Model(&files).OrderExpr("created_at DESC").Scan(ctx)
	return files, err
}

func GetFile(ctx context.Context, db *bun.DB, id string) (*File, error) {
	file := new(File)
	err := db.NewSelect().Model(file).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// FileNameTaken reports whether a stored file already uses the display name.
func FileNameTaken(ctx context.Context, db *bun.DB, fileName string) (bool, error) {
	return db.NewSelect().Model((*File)(nil)).Where("file_name = ?", fileName).Exists(ctx)
}

func DeleteFile(ctx context.Context, db *bun.DB, id string) error {
	_, err := db.NewDelete().Model((*File)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

func InsertHistory(ctx context.Context, db *bun.DB, entry *History) error {
	entry.CreatedAt = time.Now().UTC()
	_, err := db.NewInsert().Model(entry).Exec(ctx)
	return err
}

func ListHistory(ctx context.Context, db *bun.DB) ([]History, error) {
	var entries []History
	err := db.NewSelect().Model(&entries).
		Column("id", "question", "created_at").
		OrderExpr("id DESC").
		Scan(ctx)
	return entries, err
}

func GetHistory(ctx context.Context, db *bun.DB, id int64) (*History, error) {
	entry := new(History)
	err := db.NewSelect().Model(entry).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func DeleteHistory(ctx context.Context, db *bun.DB, id int64) error {
	_, err := db.NewDelete().Model((*History)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// Store bundles the package functions behind one injectable value.
type Store struct {
	DB *bun.DB
}

func (s *Store) InsertFile(ctx context.Context, file *File) error {
	return InsertFile(ctx, s.DB, file)
}

func (s *Store) ListFiles(ctx context.Context) ([]File, error) {
	return ListFiles(ctx, s.DB)
}

func (s *Store) GetFile(ctx context.Context, id string) (*File, error) {
	return GetFile(ctx, s.DB, id)
}

func (s *Store) FileNameTaken(ctx context.Context, fileName string) (bool, error) {
	return FileNameTaken(ctx, s.DB, fileName)
}

func (s *Store) DeleteFile(ctx context.Context, id string) error {
	return DeleteFile(ctx, s.DB, id)
}

func (s *Store) InsertHistory(ctx context.Context, entry *History) error {
	return InsertHistory(ctx, s.DB, entry)
}

func (s *Store) ListHistory(ctx context.Context) ([]History, error) {
	return ListHistory(ctx, s.DB)
}

func (s *Store) GetHistory(ctx context.Context, id int64) (*History, error) {
	return GetHistory(ctx, s.DB, id)
}

func (s *Store) DeleteHistory(ctx context.Context, id int64) error {
	return DeleteHistory(ctx, s.DB, id)
}
