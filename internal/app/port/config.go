package port

import "embeddables/internal/domain/entity"

// ConfigProvider gives read access to the assembled Configuration.
type ConfigProvider interface {
	// Configuration returns a copy of the process-wide Configuration.
	Configuration() entity.Configuration
	Collection(id string) (entity.Collection, bool)
	CW721Collections() []entity.CW721Collection
	CW20Collections() []entity.CW20Collection
	FeaturedCollections() []entity.CW721Collection
}
