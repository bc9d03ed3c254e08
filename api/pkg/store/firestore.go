package store

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/visgate/visgate/api/pkg/types"
)

// FirestoreStore is the durable Store: one document per deployment, logs
// as an append-only subcollection under it. Compare-and-set rides on
// Firestore's per-document transactions.
type FirestoreStore struct {
	client      *firestore.Client
	deployments string
	logs        string
}

type FirestoreOptions struct {
	ProjectID string
	// Prefix namespaces the collections, e.g. "staging_".
	CollectionPrefix      string
	CollectionDeployments string
	CollectionLogs        string
}

func NewFirestoreStore(ctx context.Context, opts FirestoreOptions) (*FirestoreStore, error) {
	if opts.CollectionDeployments == "" {
		opts.CollectionDeployments = "deployments"
	}
	if opts.CollectionLogs == "" {
		opts.CollectionLogs = "logs"
	}
	client, err := firestore.NewClient(ctx, opts.ProjectID)
	if err != nil {
		return nil, err
	}
	return &FirestoreStore{
		client:      client,
		deployments: opts.CollectionPrefix + opts.CollectionDeployments,
		logs:        opts.CollectionPrefix + opts.CollectionLogs,
	}, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) doc(id string) *firestore.DocumentRef {
	return s.client.Collection(s.deployments).Doc(id)
}

func (s *FirestoreStore) CreateDeployment(ctx context.Context, deployment *types.Deployment) (*types.Deployment, error) {
	_, err := s.doc(deployment.ID).Create(ctx, deployment)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	cp := *deployment
	return &cp, nil
}

func (s *FirestoreStore) GetDeployment(ctx context.Context, id, ownerHash string) (*types.Deployment, error) {
	deployment, err := s.GetDeploymentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// wrong owner is indistinguishable from missing, by contract
	if deployment.OwnerHash != ownerHash {
		return nil, ErrNotFound
	}
	return deployment, nil
}

func (s *FirestoreStore) GetDeploymentByID(ctx context.Context, id string) (*types.Deployment, error) {
	snap, err := s.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var deployment types.Deployment
	if err := snap.DataTo(&deployment); err != nil {
		return nil, err
	}
	return &deployment, nil
}

func (s *FirestoreStore) UpdateDeployment(ctx context.Context, id string, expected []types.DeploymentStatus, patch DeploymentPatch) (*types.Deployment, error) {
	var updated types.Deployment
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(s.doc(id))
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}
		var deployment types.Deployment
		if err := snap.DataTo(&deployment); err != nil {
			return err
		}
		if !StatusIn(deployment.Status, expected) {
			return ErrConflict
		}
		ApplyPatch(&deployment, patch, time.Now().UTC())
		updated = deployment
		return tx.Set(s.doc(id), &deployment)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *FirestoreStore) AppendLog(ctx context.Context, id string, level types.LogLevel, message string) error {
	entry := types.LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
	}
	_, _, err := s.doc(id).Collection(s.logs).Add(ctx, entry)
	return err
}

func (s *FirestoreStore) ListLogs(ctx context.Context, id string, limit int) ([]*types.LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	// newest N, then reversed back into append order
	iter := s.doc(id).Collection(s.logs).
		OrderBy("timestamp", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var entries []*types.LogEntry
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var entry types.LogEntry
		if err := snap.DataTo(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func (s *FirestoreStore) FindReusableDeployment(ctx context.Context, ownerHash, modelID, gpuTier string) (*types.Deployment, error) {
	query := s.client.Collection(s.deployments).
		Where("owner_hash", "==", ownerHash).
		Where("model_id", "==", modelID).
		Limit(25)
	iter := query.Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var deployment types.Deployment
		if err := snap.DataTo(&deployment); err != nil {
			return nil, err
		}
		if gpuTier != "" && deployment.RequestedTier != gpuTier {
			continue
		}
		switch deployment.Status {
		case types.DeploymentStatusFailed, types.DeploymentStatusDeleted,
			types.DeploymentStatusTimeout:
			continue
		}
		return &deployment, nil
	}
	return nil, ErrNotFound
}

func (s *FirestoreStore) Ping(ctx context.Context) error {
	// a single cheap read proves connectivity and auth
	iter := s.client.Collection(s.deployments).Limit(1).Documents(ctx)
	defer iter.Stop()
	_, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil
	}
	return err
}
