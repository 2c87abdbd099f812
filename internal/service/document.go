package service

import (
	"context"
	"time"

	"crowdfund/internal/apperr"
	"crowdfund/internal/database"
	"crowdfund/internal/model"
	"crowdfund/internal/storage"
)

func saveDocument(ctx context.Context, db *database.Database, docs storage.DocumentStorage, req model.DocumentSaveRequest, now time.Time) (*model.Document, error) {
	if len(req.Data) == 0 {
		return nil, apperr.New(apperr.ValidationFailed, apperr.CodeStorage, "document.Save", "document %q is empty", req.Name)
	}
	link, err := docs.Save(ctx, req.Name, req.Data)
	if err != nil {
		return nil, err
	}
	doc := &model.Document{
		Link:      link,
		Name:      req.Name,
		Type:      req.Type,
		Size:      int64(len(req.Data)),
		CreatedBy: req.User,
		CreatedAt: now,
	}
	if err := db.InsertDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
