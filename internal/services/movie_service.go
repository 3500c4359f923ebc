package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"

	"movieshare-backend/internal/config"
	"movieshare-backend/internal/database"
	"movieshare-backend/internal/dto"
	"movieshare-backend/internal/language"
	"movieshare-backend/internal/media"
	"movieshare-backend/internal/models"
	"movieshare-backend/internal/storage"
)

var (
	ErrMovieNotFound   = errors.New("movie not found")
	ErrNotOwner        = errors.New("not the owner of this movie")
	ErrBadExtension    = errors.New("file type not allowed")
	ErrAlreadyReviewed = errors.New("movie has already been reviewed")
	ErrInvalidStatus   = errors.New("unknown review status")
)

// thumbnailExtensions lists accepted poster image formats.
var thumbnailExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".gif": {},
}

// Viewer identifies the requesting account for visibility and
// ownership decisions.
type Viewer struct {
	ID     uuid.UUID
	Handle string
	Role   models.UserRole
}

func (v Viewer) canModerate() bool {
	return v.Role.CanModerate()
}

type MovieService struct {
	db        *database.DB
	store     *storage.Store
	processor media.Processor
	cfg       *config.Config
	logger    *slog.Logger
}

func NewMovieService(db *database.DB, store *storage.Store, processor media.Processor, cfg *config.Config, logger *slog.Logger) *MovieService {
	return &MovieService{db: db, store: store, processor: processor, cfg: cfg, logger: logger}
}

// UploadInput carries one upload's form fields and file streams.
type UploadInput struct {
	Title       string
	Description string
	Language    string
	Genres      []string

	FileName string
	File     io.Reader

	// Optional poster image. When absent, a frame is extracted from
	// the video instead.
	ThumbnailName string
	Thumbnail     io.Reader
}

// Upload runs the whole intake pipeline: validate, spool to disk,
// probe the container, produce a thumbnail, move the file to its final
// name and record the metadata row. Every failure unwinds the files
// already written, so the store and the database never disagree.
func (s *MovieService) Upload(ctx context.Context, owner Viewer, in *UploadInput) (*dto.MovieResponse, error) {
	form := &dto.UploadMovieRequest{
		Title:       in.Title,
		Description: in.Description,
		Language:    in.Language,
		Genres:      in.Genres,
	}
	if err := dto.Validate(form); err != nil {
		return nil, err
	}
	if !s.cfg.ExtensionAllowed(in.FileName) {
		return nil, ErrBadExtension
	}
	if in.Thumbnail != nil && !validThumbnailName(in.ThumbnailName) {
		return nil, ErrBadExtension
	}

	lang := language.Canonical(form.Language)
	genres := language.CanonicalList(form.Genres)

	tmpPath, size, err := s.store.SpoolVideo(in.File)
	if err != nil {
		return nil, err
	}
	defer func() {
		if tmpPath == "" {
			return
		}
		if derr := s.store.Discard(tmpPath); derr != nil {
			s.logger.Warn("failed to discard spooled upload", "error", derr)
		}
	}()

	probe, err := s.processor.Probe(ctx, tmpPath)
	if err != nil {
		return nil, err
	}

	thumbName, err := s.writeThumbnail(ctx, tmpPath, in)
	if err != nil {
		return nil, err
	}

	storedName := storage.NewName(in.FileName)
	if err := s.store.PromoteVideo(tmpPath, storedName); err != nil {
		if rerr := s.store.RemoveThumbnail(thumbName); rerr != nil {
			err = multierror.Append(err, rerr)
		}
		return nil, err
	}
	tmpPath = ""

	movie := &models.Movie{
		ID:           uuid.New(),
		Title:        form.Title,
		Description:  form.Description,
		Filename:     storedName,
		Thumbnail:    &thumbName,
		SizeBytes:    size,
		DurationSecs: probe.DurationSecs,
		Status:       models.MovieStatusPending,
		UserID:       &owner.ID,
		UploadedAt:   time.Now().UTC(),
	}

	if err := s.insertMovie(ctx, movie, lang, genres); err != nil {
		if cerr := s.removeMovieFiles(movie); cerr != nil {
			err = multierror.Append(err, cerr)
		}
		return nil, err
	}

	s.logger.Info("movie uploaded",
		"movie_id", movie.ID,
		"title", movie.Title,
		"size_bytes", size,
		"owner", owner.Handle)

	resp := dto.NewMovieResponse(movie, owner.Handle, []string{lang}, genres)
	return &resp, nil
}

// writeThumbnail stores the user-provided poster, or renders one from
// the spooled video when none was sent.
func (s *MovieService) writeThumbnail(ctx context.Context, videoPath string, in *UploadInput) (string, error) {
	if in.Thumbnail != nil && in.ThumbnailName != "" {
		name := storage.NewName(in.ThumbnailName)
		if _, err := s.store.SaveThumbnail(name, in.Thumbnail); err != nil {
			return "", err
		}
		return name, nil
	}

	name := uuid.New().String() + "_thumbnail.jpg"
	path, err := s.store.ThumbnailPath(name)
	if err != nil {
		return "", err
	}
	if err := s.processor.Thumbnail(ctx, videoPath, path); err != nil {
		return "", err
	}
	return name, nil
}

// List returns the movies the viewer may see, newest first. Standard
// accounts see approved movies plus their own uploads; moderators see
// everything.
func (s *MovieService) List(ctx context.Context, viewer Viewer, q *dto.MovieQuery) ([]dto.MovieResponse, error) {
	query := `
		select m.*, u.handle as owner_handle
		from movies m
		left join users u on u.id = m.user_id
	`
	var conds []string
	var args []interface{}

	if !viewer.canModerate() {
		conds = append(conds, "(m.status = ? or m.user_id = ?)")
		args = append(args, models.MovieStatusApproved, viewer.ID)
	}
	if q != nil {
		if search := strings.TrimSpace(q.Search); search != "" {
			conds = append(conds, "lower(m.title) like ?")
			args = append(args, "%"+strings.ToLower(search)+"%")
		}
		if strings.TrimSpace(q.Language) != "" {
			conds = append(conds, "exists (select 1 from movie_tags t where t.movie_id = m.id and t.kind = ? and t.label = ?)")
			args = append(args, models.TagKindLanguage, language.Canonical(q.Language))
		}
		if q.Status != "" {
			if !models.ValidStatus(q.Status) {
				return nil, ErrInvalidStatus
			}
			conds = append(conds, "m.status = ?")
			args = append(args, q.Status)
		}
	}
	if len(conds) > 0 {
		query += " where " + strings.Join(conds, " and ")
	}
	query += " order by m.uploaded_at desc"

	var rows []movieRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	return s.buildResponses(ctx, rows)
}

// Get returns one movie, subject to the same visibility rules as List.
func (s *MovieService) Get(ctx context.Context, viewer Viewer, movieID uuid.UUID) (*dto.MovieResponse, error) {
	row, err := s.getRow(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if !s.visible(viewer, &row.Movie) {
		return nil, ErrMovieNotFound
	}

	resps, err := s.buildResponses(ctx, []movieRow{*row})
	if err != nil {
		return nil, err
	}
	return &resps[0], nil
}

// Update applies a partial metadata edit. Only the owner may edit.
func (s *MovieService) Update(ctx context.Context, viewer Viewer, movieID uuid.UUID, req *dto.UpdateMovieRequest) (*dto.MovieResponse, error) {
	normalizeUpdate(req)
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	row, err := s.getRow(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if !s.visible(viewer, &row.Movie) {
		return nil, ErrMovieNotFound
	}
	if !ownedBy(&row.Movie, viewer.ID) {
		return nil, ErrNotOwner
	}

	if req.Empty() {
		return s.Get(ctx, viewer, movieID)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var sets []string
	var args []interface{}
	if req.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *req.Description)
	}
	if len(sets) > 0 {
		args = append(args, movieID)
		query := tx.Rebind("update movies set " + strings.Join(sets, ", ") + " where id = ?")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to update movie: %w", err)
		}
	}

	if req.Language != nil {
		lang := language.Canonical(*req.Language)
		if err := replaceTags(ctx, tx, movieID, models.TagKindLanguage, []string{lang}); err != nil {
			return nil, err
		}
	}
	if req.Genres != nil {
		genres := language.CanonicalList(*req.Genres)
		if err := replaceTags(ctx, tx, movieID, models.TagKindGenre, genres); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit movie update: %w", err)
	}

	s.logger.Info("movie updated", "movie_id", movieID, "editor", viewer.Handle)
	return s.Get(ctx, viewer, movieID)
}

// ReplaceThumbnail stores a new poster for the movie and retires the
// old file. Only the owner may do this.
func (s *MovieService) ReplaceThumbnail(ctx context.Context, viewer Viewer, movieID uuid.UUID, name string, r io.Reader) (*dto.MovieResponse, error) {
	if !validThumbnailName(name) {
		return nil, ErrBadExtension
	}

	row, err := s.getRow(ctx, movieID)
	if err != nil {
		return nil, err
	}
	if !s.visible(viewer, &row.Movie) {
		return nil, ErrMovieNotFound
	}
	if !ownedBy(&row.Movie, viewer.ID) {
		return nil, ErrNotOwner
	}

	newName := storage.NewName(name)
	if _, err := s.store.SaveThumbnail(newName, r); err != nil {
		return nil, err
	}

	query := s.db.Rebind("update movies set thumbnail = ? where id = ?")
	if _, err := s.db.ExecContext(ctx, query, newName, movieID); err != nil {
		if rerr := s.store.RemoveThumbnail(newName); rerr != nil {
			err = multierror.Append(err, rerr)
		}
		return nil, fmt.Errorf("failed to update thumbnail: %w", err)
	}

	if old := row.Thumbnail; old != nil && *old != "" {
		if err := s.store.RemoveThumbnail(*old); err != nil {
			s.logger.Warn("failed to remove replaced thumbnail", "name", *old, "error", err)
		}
	}

	return s.Get(ctx, viewer, movieID)
}

// Delete removes the movie row and its files. The owner may delete
// their own movies; admins may delete any.
func (s *MovieService) Delete(ctx context.Context, viewer Viewer, movieID uuid.UUID) error {
	row, err := s.getRow(ctx, movieID)
	if err != nil {
		return err
	}
	if !s.visible(viewer, &row.Movie) {
		return ErrMovieNotFound
	}
	if viewer.Role != models.UserRoleAdmin && !ownedBy(&row.Movie, viewer.ID) {
		return ErrNotOwner
	}

	// Row first: tags and ratings cascade with it, and a leaked file is
	// recoverable from logs while a dangling row is user-visible.
	query := s.db.Rebind("delete from movies where id = ?")
	if _, err := s.db.ExecContext(ctx, query, movieID); err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	if err := s.removeMovieFiles(&row.Movie); err != nil {
		s.logger.Error("movie deleted but files remain", "movie_id", movieID, "error", err)
	}

	s.logger.Info("movie deleted", "movie_id", movieID, "title", row.Title, "deleted_by", viewer.Handle)
	return nil
}

// SetStatus moves a pending movie to approved or rejected. Reviewed
// movies stay reviewed.
func (s *MovieService) SetStatus(ctx context.Context, reviewer Viewer, movieID uuid.UUID, status models.MovieStatus) error {
	if status != models.MovieStatusApproved && status != models.MovieStatusRejected {
		return ErrInvalidStatus
	}

	query := s.db.Rebind("update movies set status = ? where id = ? and status = ?")
	result, err := s.db.ExecContext(ctx, query, status, movieID, models.MovieStatusPending)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	if affected == 0 {
		var exists bool
		check := s.db.Rebind("select exists (select 1 from movies where id = ?)")
		if err := s.db.GetContext(ctx, &exists, check, movieID); err != nil {
			return fmt.Errorf("failed to check movie: %w", err)
		}
		if !exists {
			return ErrMovieNotFound
		}
		return ErrAlreadyReviewed
	}

	s.logger.Info("movie reviewed", "movie_id", movieID, "status", status, "reviewer", reviewer.Handle)
	return nil
}

// Languages returns the distinct language labels in use, for the
// gallery filter dropdown.
func (s *MovieService) Languages(ctx context.Context) ([]string, error) {
	langs := make([]string, 0)
	query := s.db.Rebind("select distinct label from movie_tags where kind = ? order by label")
	if err := s.db.SelectContext(ctx, &langs, query, models.TagKindLanguage); err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}
	return langs, nil
}

// ResolveStream returns the stored video of a visible movie, keyed by
// its stored filename.
func (s *MovieService) ResolveStream(ctx context.Context, viewer Viewer, filename string) (*os.File, *models.Movie, error) {
	var movie models.Movie
	query := s.db.Rebind("select * from movies where filename = ?")
	if err := s.db.GetContext(ctx, &movie, query, filename); err != nil {
		if database.IsNoRows(err) {
			return nil, nil, ErrMovieNotFound
		}
		return nil, nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return s.openVideo(viewer, &movie)
}

// OpenMovieFile returns the stored video of a visible movie by id.
func (s *MovieService) OpenMovieFile(ctx context.Context, viewer Viewer, movieID uuid.UUID) (*os.File, *models.Movie, error) {
	row, err := s.getRow(ctx, movieID)
	if err != nil {
		return nil, nil, err
	}
	return s.openVideo(viewer, &row.Movie)
}

// OpenThumbnail returns a stored thumbnail, gated by the visibility of
// the movie it belongs to.
func (s *MovieService) OpenThumbnail(ctx context.Context, viewer Viewer, filename string) (*os.File, error) {
	var movie models.Movie
	query := s.db.Rebind("select * from movies where thumbnail = ?")
	if err := s.db.GetContext(ctx, &movie, query, filename); err != nil {
		if database.IsNoRows(err) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	if !s.visible(viewer, &movie) {
		return nil, ErrMovieNotFound
	}

	f, err := s.store.OpenThumbnail(filename)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMovieNotFound
	}
	return f, err
}

// RecordView bumps the view counter.
func (s *MovieService) RecordView(ctx context.Context, movieID uuid.UUID) error {
	query := s.db.Rebind("update movies set view_count = view_count + 1 where id = ?")
	if _, err := s.db.ExecContext(ctx, query, movieID); err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}
	return nil
}

// RecordDownload bumps the download counter.
func (s *MovieService) RecordDownload(ctx context.Context, movieID uuid.UUID) error {
	query := s.db.Rebind("update movies set download_count = download_count + 1 where id = ?")
	if _, err := s.db.ExecContext(ctx, query, movieID); err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

type movieRow struct {
	models.Movie
	OwnerHandle *string `db:"owner_handle"`
}

func (s *MovieService) getRow(ctx context.Context, movieID uuid.UUID) (*movieRow, error) {
	var row movieRow
	query := s.db.Rebind(`
		select m.*, u.handle as owner_handle
		from movies m
		left join users u on u.id = m.user_id
		where m.id = ?
	`)
	if err := s.db.GetContext(ctx, &row, query, movieID); err != nil {
		if database.IsNoRows(err) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return &row, nil
}

// visible reports whether the viewer may see the movie at all.
func (s *MovieService) visible(viewer Viewer, m *models.Movie) bool {
	if m.Status == models.MovieStatusApproved {
		return true
	}
	if viewer.canModerate() {
		return true
	}
	return ownedBy(m, viewer.ID)
}

func ownedBy(m *models.Movie, userID uuid.UUID) bool {
	return m.UserID != nil && *m.UserID == userID
}

func (s *MovieService) openVideo(viewer Viewer, movie *models.Movie) (*os.File, *models.Movie, error) {
	if !s.visible(viewer, movie) {
		return nil, nil, ErrMovieNotFound
	}

	f, err := s.store.OpenVideo(movie.Filename)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Error("movie file missing from store", "movie_id", movie.ID, "filename", movie.Filename)
		return nil, nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return f, movie, nil
}

func (s *MovieService) insertMovie(ctx context.Context, movie *models.Movie, lang string, genres []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`
		insert into movies (id, title, description, filename, thumbnail, size_bytes,
			duration_secs, status, user_id, view_count, download_count, uploaded_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = tx.ExecContext(ctx, query,
		movie.ID, movie.Title, movie.Description, movie.Filename, movie.Thumbnail,
		movie.SizeBytes, movie.DurationSecs, movie.Status, movie.UserID,
		movie.ViewCount, movie.DownloadCount, movie.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to insert movie: %w", err)
	}

	if err := insertTags(ctx, tx, movie.ID, models.TagKindLanguage, []string{lang}); err != nil {
		return err
	}
	if err := insertTags(ctx, tx, movie.ID, models.TagKindGenre, genres); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit movie: %w", err)
	}
	return nil
}

func insertTags(ctx context.Context, tx *sqlx.Tx, movieID uuid.UUID, kind models.TagKind, labels []string) error {
	query := tx.Rebind("insert into movie_tags (id, movie_id, kind, label) values (?, ?, ?, ?)")
	for _, label := range labels {
		if label == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, query, uuid.New(), movieID, kind, label); err != nil {
			return fmt.Errorf("failed to tag movie: %w", err)
		}
	}
	return nil
}

func replaceTags(ctx context.Context, tx *sqlx.Tx, movieID uuid.UUID, kind models.TagKind, labels []string) error {
	query := tx.Rebind("delete from movie_tags where movie_id = ? and kind = ?")
	if _, err := tx.ExecContext(ctx, query, movieID, kind); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	return insertTags(ctx, tx, movieID, kind, labels)
}

// buildResponses loads everything the API shape needs beyond the movie
// rows themselves, with one tag query for the whole page.
func (s *MovieService) buildResponses(ctx context.Context, rows []movieRow) ([]dto.MovieResponse, error) {
	out := make([]dto.MovieResponse, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	query, args, err := sqlx.In("select movie_id, kind, label from movie_tags where movie_id in (?) order by label", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build tag query: %w", err)
	}
	var tags []models.MovieTag
	if err := s.db.SelectContext(ctx, &tags, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}

	languagesByMovie := make(map[uuid.UUID][]string)
	genresByMovie := make(map[uuid.UUID][]string)
	for _, tag := range tags {
		switch tag.Kind {
		case models.TagKindLanguage:
			languagesByMovie[tag.MovieID] = append(languagesByMovie[tag.MovieID], tag.Label)
		case models.TagKindGenre:
			genresByMovie[tag.MovieID] = append(genresByMovie[tag.MovieID], tag.Label)
		}
	}

	for i := range rows {
		row := &rows[i]
		owner := ""
		if row.OwnerHandle != nil {
			owner = *row.OwnerHandle
		}
		out = append(out, dto.NewMovieResponse(&row.Movie, owner, languagesByMovie[row.ID], genresByMovie[row.ID]))
	}
	return out, nil
}

// removeMovieFiles deletes the stored video and thumbnail, reporting
// every failure rather than stopping at the first.
func (s *MovieService) removeMovieFiles(movie *models.Movie) error {
	var result *multierror.Error
	if err := s.store.RemoveVideo(movie.Filename); err != nil {
		result = multierror.Append(result, err)
	}
	if movie.Thumbnail != nil && *movie.Thumbnail != "" {
		if err := s.store.RemoveThumbnail(*movie.Thumbnail); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func normalizeUpdate(req *dto.UpdateMovieRequest) {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		t := strings.TrimSpace(*p)
		return &t
	}
	req.Title = trim(req.Title)
	req.Description = trim(req.Description)
	req.Language = trim(req.Language)
	if req.Genres != nil {
		genres := *req.Genres
		for i := range genres {
			genres[i] = strings.TrimSpace(genres[i])
		}
	}
}

func validThumbnailName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := thumbnailExtensions[ext]
	return ok
}
