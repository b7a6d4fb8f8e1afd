// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package metastore

import (
	"context"
	"fmt"
	"strings"

	"github.com/coldbrook-labs/shale/pkg/types"
)

// ListParams contains parameters for ListObjects.
type ListParams struct {
	Prefix     string
	StartAfter string // resume after this key (exclusive)
	MaxKeys    int

	// IncludeVersions lists every version of each key, newest first,
	// including delete markers. Default lists only live latest records.
	IncludeVersions bool

	// AfterVersion resumes within a key when IncludeVersions is set.
	// Zero means "all versions of StartAfter are done".
	AfterVersion int64
}

// ListResult contains one page of records. Pages never contain duplicate
// rows; concurrent writes during pagination may or may not appear in
// later pages.
type ListResult struct {
	Records     []*types.ObjectRecord
	IsTruncated bool

	// Continuation cursor for the next page.
	NextKey     string
	NextVersion int64
}

const defaultMaxKeys = 1000

// likeEscaper neutralizes LIKE metacharacters so a prefix such as
// "my_file/" matches keys literally instead of treating _ and % as
// wildcards. Queries using the result must carry ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListObjects returns records ordered by key ascending, then version
// descending, restartable from a (key, version) cursor.
func (s *Store) ListObjects(ctx context.Context, params ListParams) (*ListResult, error) {
	maxKeys := params.MaxKeys
	if maxKeys <= 0 || maxKeys > 10000 {
		maxKeys = defaultMaxKeys
	}
	fetchLimit := maxKeys + 1

	query := `
		SELECT ` + ObjectColumns + `
		FROM objects
		WHERE object_key LIKE ? ESCAPE '\'`
	args := []any{likeEscaper.Replace(params.Prefix) + "%"}

	if !params.IncludeVersions {
		query += ` AND is_latest = 1 AND delete_marker = 0 AND deleted_at = 0`
		if params.StartAfter != "" {
			query += ` AND object_key > ?`
			args = append(args, params.StartAfter)
		}
		query += ` ORDER BY object_key LIMIT ?`
	} else {
		if params.StartAfter != "" {
			if params.AfterVersion > 0 {
				// Mid-key cursor: remaining versions of StartAfter,
				// then everything past it.
				query += ` AND (object_key > ? OR (object_key = ? AND version < ?))`
				args = append(args, params.StartAfter, params.StartAfter, params.AfterVersion)
			} else {
				query += ` AND object_key > ?`
				args = append(args, params.StartAfter)
			}
		}
		query += ` ORDER BY object_key, version DESC LIMIT ?`
	}
	args = append(args, fetchLimit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	defer rows.Close()

	var records []*types.ObjectRecord
	for rows.Next() {
		rec, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	result := &ListResult{Records: records}
	if len(records) > maxKeys {
		result.IsTruncated = true
		result.Records = records[:maxKeys]
		last := result.Records[len(result.Records)-1]
		result.NextKey = last.Key
		if params.IncludeVersions {
			result.NextVersion = last.Version
		}
	}
	return result, nil
}
