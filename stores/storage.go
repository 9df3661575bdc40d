package stores

import (
	"os"

	"roomdrop-server/core"
	"roomdrop-server/stores/filesystem"
	"roomdrop-server/stores/memory"
	"roomdrop-server/stores/sqlite"

	"github.com/sirupsen/logrus"
)

func GetStore() core.FileStore {
	storageType := os.Getenv("STORAGE_TYPE")
	var store core.FileStore

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "filesystem":
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "uploads"
		}
		storageField["basePath"] = basePath
		store = filesystem.NewFileStore(basePath)
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		storageField["dataSourceName"] = dataSourceName
		store = sqlite.NewFileStore(dataSourceName)
	default:
		store = memory.NewFileStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
