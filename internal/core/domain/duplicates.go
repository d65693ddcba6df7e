package domain

// CatalogedAsset pairs an asset with the folder it lives in
type CatalogedAsset struct {
	Asset  Asset
	Folder Folder
}

// Path returns the absolute file path of the asset
func (c CatalogedAsset) Path() string {
	return c.Asset.FullPath(c.Folder)
}

// DuplicateSet groups assets with identical content
type DuplicateSet struct {
	Hash   string
	Assets []CatalogedAsset
}

// WastedBytes is the space that would be reclaimed by keeping a single copy
func (s DuplicateSet) WastedBytes() int64 {
	if len(s.Assets) < 2 {
		return 0
	}
	var total int64
	for _, a := range s.Assets[1:] {
		total += a.Asset.FileProperties.Size
	}
	return total
}

// SimilarSet groups visually similar images
type SimilarSet struct {
	Assets      []CatalogedAsset
	MaxDistance int
}
