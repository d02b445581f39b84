package grpcserver

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"mangashelf/internal/library"
	"mangashelf/internal/manga"
	"mangashelf/pkg/models"
)

// RootSource yields the configured library directory and records a new one
// when a refresh is run against an explicit root.
type RootSource interface {
	LibraryRoot(ctx context.Context) (string, error)
	SetLibraryRoot(ctx context.Context, root string) error
}

type Server struct {
	MangaRepo  *manga.Repo
	Roots      RootSource
	Reconciler *library.Reconciler

	reconciling sync.Mutex
}

func NewServer(mangaRepo *manga.Repo, roots RootSource) *Server {
	return &Server{
		MangaRepo:  mangaRepo,
		Roots:      roots,
		Reconciler: library.NewReconciler(mangaRepo),
	}
}

func (s *Server) root(ctx context.Context, requested string) (string, error) {
	if r := strings.TrimSpace(requested); r != "" {
		return library.ExpandHome(r), nil
	}
	r, err := s.Roots.LibraryRoot(ctx)
	if err != nil {
		return "", status.Error(codes.Unavailable, "library root unavailable")
	}
	return r, nil
}

func (s *Server) Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error) {
	root, err := s.root(ctx, req.Root)
	if err != nil {
		return nil, err
	}
	res, err := library.Scan(root)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ScanResponse{Root: res.Root, Mangas: res.Mangas, Skipped: res.Skipped}, nil
}

func (s *Server) Reconcile(ctx context.Context, req *ReconcileRequest) (*ReconcileResponse, error) {
	if !s.reconciling.TryLock() {
		return nil, status.Error(codes.Aborted, "a library refresh is already running")
	}
	defer s.reconciling.Unlock()

	override := strings.TrimSpace(req.Root) != ""
	root, err := s.root(ctx, req.Root)
	if err != nil {
		return nil, err
	}
	if override {
		// the catalog is served from the saved root, so only a usable one is kept
		if root, err = library.ValidateRoot(root); err != nil {
			return nil, toStatus(err)
		}
	}
	res, err := s.Reconciler.Reconcile(ctx, root)
	if err != nil {
		log.Printf("[grpc] reconcile %s: %v", root, err)
		return nil, toStatus(err)
	}
	if override {
		if err := s.Roots.SetLibraryRoot(ctx, root); err != nil {
			log.Printf("[grpc] save library root %s: %v", root, err)
			return nil, status.Error(codes.Internal, "catalog refreshed but library root not saved")
		}
		log.Printf("[grpc] library root set to %s", root)
	}
	return &ReconcileResponse{
		Root:       res.Root,
		Written:    res.Written,
		Skipped:    res.Skipped,
		Collisions: res.Collisions,
	}, nil
}

func (s *Server) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	root, err := s.root(ctx, req.Root)
	if err != nil {
		return nil, err
	}
	dir, err := library.Resolve(root, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ResolveResponse{Dir: dir}, nil
}

func (s *Server) ListImages(ctx context.Context, req *ListImagesRequest) (*ListImagesResponse, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	root, err := s.root(ctx, req.Root)
	if err != nil {
		return nil, err
	}
	dir, err := library.Resolve(root, req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	images, err := library.ListImages(dir)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListImagesResponse{Dir: dir, Images: images, TotalPages: len(images)}, nil
}

func (s *Server) ListManga(ctx context.Context, req *ListMangaRequest) (*ListMangaResponse, error) {
	query := manga.ListQuery{
		Search: strings.TrimSpace(req.Search),
		Status: strings.TrimSpace(req.Status),
		Limit:  req.Limit,
		Offset: req.Offset,
	}

	total, err := s.MangaRepo.Count(ctx, query)
	if err != nil {
		return nil, status.Error(codes.Internal, "count failed")
	}
	items, err := s.MangaRepo.List(ctx, query)
	if err != nil {
		return nil, status.Error(codes.Internal, "list failed")
	}

	return &ListMangaResponse{Total: total, Limit: query.Limit, Offset: query.Offset, Items: items}, nil
}

func (s *Server) GetManga(ctx context.Context, req *GetMangaRequest) (*GetMangaResponse, error) {
	var (
		item *models.Manga
		err  error
	)
	switch {
	case req.ID > 0:
		item, err = s.MangaRepo.GetByID(ctx, req.ID)
	case strings.TrimSpace(req.Slug) != "":
		item, err = s.MangaRepo.GetBySlug(ctx, strings.TrimSpace(req.Slug))
	default:
		return nil, status.Error(codes.InvalidArgument, "id or slug required")
	}
	if err != nil {
		return nil, status.Error(codes.Internal, "get failed")
	}
	if item == nil {
		return nil, status.Error(codes.NotFound, "not found")
	}
	return &GetMangaResponse{Manga: *item}, nil
}

// toStatus maps an engine error kind to a gRPC status.
func toStatus(err error) error {
	msg := err.Error()
	switch {
	case errors.Is(err, library.ErrNotFound):
		return status.Error(codes.NotFound, msg)
	case errors.Is(err, library.ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, msg)
	case errors.Is(err, library.ErrInvalidConfiguration):
		return status.Error(codes.FailedPrecondition, msg)
	default:
		return status.Error(codes.Internal, msg)
	}
}
