package mocks

//go:generate mockery --name CatalogStore --srcpkg github.com/qlsach-lab/catalog-ledger/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name ActivityLog --srcpkg github.com/qlsach-lab/catalog-ledger/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
