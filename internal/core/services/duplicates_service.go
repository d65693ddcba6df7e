package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kamal-hamza/px-cli/internal/core/domain"
	"github.com/kamal-hamza/px-cli/internal/core/ports"
	"github.com/kamal-hamza/px-cli/pkg/imaging"
)

// DuplicatesService finds and removes duplicate assets
type DuplicatesService struct {
	repo    ports.AssetRepository
	remover assetRemover
	logger  *zap.Logger
}

// NewDuplicatesService creates a new duplicates service
func NewDuplicatesService(repo ports.AssetRepository, thumbs ports.ThumbnailStore, publisher ports.ChangePublisher, logger *zap.Logger) *DuplicatesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuplicatesService{
		repo:    repo,
		remover: assetRemover{repo: repo, thumbs: thumbs, publisher: publisher},
		logger:  logger,
	}
}

// FindExact groups assets with identical content hashes
func (s *DuplicatesService) FindExact(ctx context.Context) ([]domain.DuplicateSet, error) {
	all, err := s.repo.ListAllAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return groupByHash(all), nil
}

// CopiesOf returns the other assets with the same content as asset
func (s *DuplicatesService) CopiesOf(ctx context.Context, asset domain.CatalogedAsset) ([]domain.CatalogedAsset, error) {
	if asset.Asset.Hash == "" {
		return nil, nil
	}
	matches, err := s.repo.FindByHash(ctx, asset.Asset.Hash)
	if err != nil {
		return nil, fmt.Errorf("find by hash: %w", err)
	}
	var copies []domain.CatalogedAsset
	for _, m := range matches {
		if m.Asset.Key() != asset.Asset.Key() {
			copies = append(copies, m)
		}
	}
	sortCataloged(copies)
	return copies, nil
}

// groupByHash returns sets of two or more assets sharing a hash
func groupByHash(all []domain.CatalogedAsset) []domain.DuplicateSet {
	groups := make(map[string][]domain.CatalogedAsset)
	for _, a := range all {
		if a.Asset.Hash == "" {
			continue
		}
		groups[a.Asset.Hash] = append(groups[a.Asset.Hash], a)
	}

	var sets []domain.DuplicateSet
	for hash, assets := range groups {
		if len(assets) < 2 {
			continue
		}
		sortCataloged(assets)
		sets = append(sets, domain.DuplicateSet{Hash: hash, Assets: assets})
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Hash < sets[j].Hash })
	return sets
}

func sortCataloged(assets []domain.CatalogedAsset) {
	sort.Slice(assets, func(i, j int) bool {
		if assets[i].Folder.Path != assets[j].Folder.Path {
			return assets[i].Folder.Path < assets[j].Folder.Path
		}
		return assets[i].Asset.FileName < assets[j].Asset.FileName
	})
}

// FindSimilar clusters images whose difference hashes are within threshold
// bits of each other. Each content hash is represented once, so a set always
// holds at least two visually distinct files.
func (s *DuplicatesService) FindSimilar(ctx context.Context, threshold int) ([]domain.SimilarSet, error) {
	all, err := s.repo.ListAllAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	var candidates []domain.CatalogedAsset
	seenHash := make(map[string]bool)
	for _, a := range all {
		if a.Asset.IsVideo || a.Asset.Metadata.Corrupted.IsTrue || a.Asset.DHash == 0 {
			continue
		}
		if a.Asset.Hash != "" && seenHash[a.Asset.Hash] {
			continue
		}
		seenHash[a.Asset.Hash] = true
		candidates = append(candidates, a)
	}

	parent := make([]int, len(candidates))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	for i := 0; i < len(candidates); i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for j := i + 1; j < len(candidates); j++ {
			if imaging.HammingDistance(candidates[i].Asset.DHash, candidates[j].Asset.DHash) <= threshold {
				if ri, rj := find(i), find(j); ri != rj {
					parent[rj] = ri
				}
			}
		}
	}

	clusters := make(map[int][]domain.CatalogedAsset)
	for i, c := range candidates {
		root := find(i)
		clusters[root] = append(clusters[root], c)
	}

	var sets []domain.SimilarSet
	for _, members := range clusters {
		if len(members) < 2 {
			continue
		}
		sortCataloged(members)
		maxDistance := 0
		for i := range members {
			for j := i + 1; j < len(members); j++ {
				if d := imaging.HammingDistance(members[i].Asset.DHash, members[j].Asset.DHash); d > maxDistance {
					maxDistance = d
				}
			}
		}
		sets = append(sets, domain.SimilarSet{Assets: members, MaxDistance: maxDistance})
	}
	sort.Slice(sets, func(i, j int) bool {
		return sets[i].Assets[0].Path() < sets[j].Assets[0].Path()
	})
	return sets, nil
}

// DeleteDuplicates removes others, keeping keep. Every asset in others must
// share keep's content hash.
func (s *DuplicatesService) DeleteDuplicates(ctx context.Context, keep domain.CatalogedAsset, others []domain.CatalogedAsset) (int, error) {
	for _, o := range others {
		if o.Asset.Key() == keep.Asset.Key() {
			return 0, fmt.Errorf("refusing to delete the kept asset %s", keep.Path())
		}
		if o.Asset.Hash != keep.Asset.Hash {
			return 0, fmt.Errorf("%s is not a duplicate of %s", o.Path(), keep.Path())
		}
	}

	touched := make(map[string]bool)
	deleted := 0
	for _, o := range others {
		if err := ctx.Err(); err != nil {
			_ = s.remover.flush(touched)
			return deleted, err
		}
		if err := s.remover.remove(ctx, o); err != nil {
			_ = s.remover.flush(touched)
			return deleted, err
		}
		touched[o.Folder.ID] = true
		deleted++
		s.logger.Info("duplicate deleted", zap.String("path", o.Path()), zap.String("kept", keep.Path()))
	}
	return deleted, s.remover.flush(touched)
}
