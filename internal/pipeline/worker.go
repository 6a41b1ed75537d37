package pipeline

import (
	"context"
	"log/slog"

	"github.com/ppb-analytics/ppbtree/internal/docstore"
	"github.com/ppb-analytics/ppbtree/internal/docx"
	"github.com/ppb-analytics/ppbtree/internal/entities"
	"github.com/ppb-analytics/ppbtree/internal/parse"
)

// process runs one job through parse, build, split and store.
func (o *Orchestrator) process(ctx context.Context, log *slog.Logger, job *Job) {
	log = log.With("job_id", job.ID, "filename", job.Filename)
	log.Info("job started")

	data := job.FileData()
	defer job.ReleaseFileData()

	hash := ContentHashHex(data)
	if existing, ok := o.store.FindByHash(hash); ok {
		job.SetDocID(existing.ID)
		job.SetStatus(StatusDuplicateSkipped, "already ingested as "+existing.ID)
		log.Info("duplicate upload skipped", "document_id", existing.ID)
		return
	}

	job.SetStatus(StatusParsing, "reading document")
	doc, err := docx.ReadBytes(data)
	if err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "unreadable document")
		log.Error("parse failed", "error", err)
		return
	}
	if ctx.Err() != nil {
		job.SetStatus(StatusFailed, "shutting down")
		return
	}

	job.SetStatus(StatusBuilding, "building block tree")
	elements := parse.Annotate(doc)
	tree := parse.Build(elements)

	job.SetStatus(StatusSplitting, "splitting by entity")
	splitter := entities.NewSplitter(o.opts.SectionToEntity, o.opts.Abbreviations)
	splitter.AddDocument(job.Filename, tree)
	ents := splitter.Entities()
	job.SetCounts(len(elements), len(tree), len(ents))

	job.SetStatus(StatusStoring, "persisting results")
	record := docstore.Document{
		ID:           job.ID,
		Filename:     job.Filename,
		IngestedAt:   job.CreatedAt.UTC(),
		ElementCount: len(elements),
		EntityCount:  len(ents),
		ContentHash:  hash,
	}
	if err := o.store.Save(record, tree, ents); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "store error")
		log.Error("store failed", "error", err)
		return
	}
	job.SetDocID(record.ID)

	if len(ents) == 0 {
		job.SetStatus(StatusPartial, "stored without entities")
		log.Warn("no entities found", "document_id", record.ID)
		return
	}

	job.SetStatus(StatusCompleted, "done")
	log.Info("job completed", "document_id", record.ID,
		"elements", len(elements), "entities", len(ents))
}
