package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"BookAnnotator/internal/domain"
	"BookAnnotator/internal/ports"
)

// Catalog reads bibliographic records from the library catalog view.
type Catalog struct {
	db      *sql.DB
	table   string
	builder sq.StatementBuilderType
}

var _ ports.Catalog = (*Catalog)(nil)

// NewCatalog wires a read-only view such as DOC_VIEW.
func NewCatalog(db *sql.DB, driver, table string) (*Catalog, error) {
	if err := checkIdentifier(table); err != nil {
		return nil, err
	}
	builder, err := statementBuilder(driver)
	if err != nil {
		return nil, err
	}
	return &Catalog{db: db, table: table, builder: builder}, nil
}

// FindRecord loads the record with DOC_ID = id.
func (c *Catalog) FindRecord(ctx context.Context, id int64) (domain.BibliographicRecord, bool, error) {
	query, args, err := c.builder.
		Select(
			"DOC_ID", "author", "other_authors", "title", "title_continuation",
			"publication_place", "publisher", "year", "isbn", "keywords",
		).
		From(c.table).
		Where(sq.Eq{"DOC_ID": id}).
		ToSql()
	if err != nil {
		return domain.BibliographicRecord{}, false, fmt.Errorf("build select: %w", err)
	}

	var (
		docID                                          int64
		author, otherAuthors, title, titleContinuation sql.NullString
		place, publisher, isbn, keywords               sql.NullString
		year                                           sql.NullInt64
	)
	err = c.db.QueryRowContext(ctx, query, args...).Scan(
		&docID, &author, &otherAuthors, &title, &titleContinuation,
		&place, &publisher, &year, &isbn, &keywords,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BibliographicRecord{}, false, nil
	}
	if err != nil {
		return domain.BibliographicRecord{}, false, fmt.Errorf("select record %d: %w", id, err)
	}

	return domain.BibliographicRecord{
		ID:                docID,
		Author:            text(author),
		OtherAuthors:      text(otherAuthors),
		Title:             text(title),
		TitleContinuation: text(titleContinuation),
		PublicationPlace:  text(place),
		Publisher:         text(publisher),
		Year:              int(year.Int64),
		ISBN:              text(isbn),
		Keywords:          text(keywords),
	}, true, nil
}

func text(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	return strings.TrimSpace(v.String)
}
