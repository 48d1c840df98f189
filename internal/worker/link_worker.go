package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"avidoc/internal/graph"
	"avidoc/internal/model"
	"avidoc/internal/platform/rabbitmq"
	"avidoc/internal/repository"
)

const inferredLinkWeight = 0.8

// LinkInferenceWorker consumes document-ingested events and scans the new
// document's text for identifiers of other known documents. Each mention
// becomes a references edge, persisted and mirrored into the in-memory
// graph. Inference runs off the upload path so ingestion latency does not
// depend on corpus size.
type LinkInferenceWorker struct {
	conn      *amqp.Connection
	docRepo   *repository.DocumentRepository
	linkRepo  *repository.LinkRepository
	kg        *graph.KnowledgeGraph
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewLinkInferenceWorker(
	conn *amqp.Connection,
	docRepo *repository.DocumentRepository,
	linkRepo *repository.LinkRepository,
	kg *graph.KnowledgeGraph,
	queueName string,
) *LinkInferenceWorker {
	return &LinkInferenceWorker{
		conn:      conn,
		docRepo:   docRepo,
		linkRepo:  linkRepo,
		kg:        kg,
		queueName: queueName,
	}
}

func (w *LinkInferenceWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var event rabbitmq.IngestedEvent
				if err := json.Unmarshal(d.Body, &event); err != nil {
					log.Printf("worker decode ingested event failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.inferLinks(event.DocID); err != nil {
					log.Printf("worker infer links for %s failed: %v", event.DocID, err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// inferLinks scans the document's text for mentions of every other known
// document identifier. Duplicate links are skipped, not errors: the same
// document may be re-ingested many times.
func (w *LinkInferenceWorker) inferLinks(docID string) error {
	doc, err := w.docRepo.GetByDocID(docID)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}

	others, err := w.docRepo.ListAll()
	if err != nil {
		return err
	}

	content := strings.ToLower(doc.Content)
	for _, other := range others {
		if other.DocID == docID {
			continue
		}
		if !mentions(content, other.DocID) {
			continue
		}

		link := &model.DocumentLink{
			Source:      docID,
			Target:      other.DocID,
			Relation:    model.RelationReferences,
			Weight:      inferredLinkWeight,
			Description: "mentioned in document text",
		}
		if err := w.linkRepo.Create(link); err != nil {
			if errors.Is(err, repository.ErrDuplicateLink) {
				continue
			}
			return err
		}
		w.kg.AddEdge(graph.Edge{
			Source:      link.Source,
			Target:      link.Target,
			Relation:    link.Relation,
			Weight:      link.Weight,
			Description: link.Description,
		})
	}
	return nil
}

// mentions reports whether identifier occurs in content as a whole token.
// Short identifiers match too often as substrings, so boundaries are
// checked on both sides.
func mentions(content, identifier string) bool {
	identifier = strings.ToLower(identifier)
	for offset := 0; ; {
		idx := strings.Index(content[offset:], identifier)
		if idx < 0 {
			return false
		}
		idx += offset
		end := idx + len(identifier)
		beforeOK := idx == 0 || isBoundary(content[idx-1])
		afterOK := end == len(content) || isBoundary(content[end])
		if beforeOK && afterOK {
			return true
		}
		offset = idx + 1
	}
}

func isBoundary(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return false
	case b >= '0' && b <= '9':
		return false
	}
	return true
}

func (w *LinkInferenceWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
