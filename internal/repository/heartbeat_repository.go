package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/kirychukyurii/hostbeat/internal/changefeed"
	"github.com/kirychukyurii/hostbeat/internal/clock"
	"github.com/kirychukyurii/hostbeat/internal/concurrent"
	"github.com/kirychukyurii/hostbeat/internal/model"
)

// StoredHeartBeat is a heartbeat together with its storage coordinates
type StoredHeartBeat struct {
	model.HeartBeat
	Key      string
	Revision int64 // mod revision of the key when it was read
}

// HeartBeatRepository defines the interface for heartbeat storage
type HeartBeatRepository interface {
	// Save writes hb under its host key, replacing any previous record.
	// The key is attached to a lease that expires with the heartbeat.
	Save(ctx context.Context, hb model.HeartBeat) error

	// SaveAll writes many heartbeats in parallel. Every heartbeat is attempted;
	// the returned error joins the individual failures.
	SaveAll(ctx context.Context, hbs []model.HeartBeat) error

	// List reads every heartbeat under the prefix. Malformed records are skipped.
	List(ctx context.Context) ([]StoredHeartBeat, error)

	// DeleteIfUnchanged removes the record only if it was not rewritten since it was read
	DeleteIfUnchanged(ctx context.Context, stored StoredHeartBeat) (bool, error)
}

// etcdHeartBeatRepository implements HeartBeatRepository
type etcdHeartBeatRepository struct {
	client          *clientv3.Client
	prefix          string
	saveConcurrency int
	now             clock.NowReader
	logger          *slog.Logger
}

// NewHeartBeatRepository creates a new etcd heartbeat repository
func NewHeartBeatRepository(
	client *clientv3.Client,
	prefix string,
	saveConcurrency int,
	now clock.NowReader,
	logger *slog.Logger,
) HeartBeatRepository {
	return &etcdHeartBeatRepository{
		client:          client,
		prefix:          prefix,
		saveConcurrency: saveConcurrency,
		now:             now,
		logger:          logger,
	}
}

func (r *etcdHeartBeatRepository) Save(ctx context.Context, hb model.HeartBeat) error {
	data, err := changefeed.EncodeImage(hb)
	if err != nil {
		return err
	}

	var opts []clientv3.OpOption
	if ttl := LeaseTTL(hb, r.now.ReadUTC()); ttl > 0 {
		lease, err := r.client.Grant(ctx, ttl)
		if err != nil {
			return fmt.Errorf("failed to grant lease for %s: %w", hb.HostID, err)
		}
		opts = append(opts, clientv3.WithLease(lease.ID))
	}

	key := HostKey(r.prefix, hb.HostID)
	if _, err := r.client.Put(ctx, key, string(data), opts...); err != nil {
		return fmt.Errorf("failed to write heartbeat to etcd: %w", err)
	}

	r.logger.Debug("wrote heartbeat to etcd",
		slog.String("key", key),
		slog.String("expiration_utc", model.FormatUTC(hb.ExpirationUTC, "")),
	)

	return nil
}

func (r *etcdHeartBeatRepository) SaveAll(ctx context.Context, hbs []model.HeartBeat) error {
	results := concurrent.ParallelMapWithLimit(ctx, hbs, func(ctx context.Context, hb model.HeartBeat) (struct{}, error) {
		return struct{}{}, r.Save(ctx, hb)
	}, r.saveConcurrency)

	return concurrent.JoinErrors(results)
}

func (r *etcdHeartBeatRepository) List(ctx context.Context) ([]StoredHeartBeat, error) {
	resp, err := r.client.Get(ctx, r.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list heartbeats from etcd: %w", err)
	}

	stored := make([]StoredHeartBeat, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		hb, err := DecodeKeyValue(kv)
		if err != nil {
			r.logger.Warn("skipping malformed heartbeat record",
				slog.String("key", string(kv.Key)),
				slog.String("error", err.Error()),
			)
			continue
		}
		stored = append(stored, hb)
	}

	return stored, nil
}

func (r *etcdHeartBeatRepository) DeleteIfUnchanged(ctx context.Context, stored StoredHeartBeat) (bool, error) {
	resp, err := r.client.Txn(ctx).
		If(clientv3.Compare(clientv3.ModRevision(stored.Key), "=", stored.Revision)).
		Then(clientv3.OpDelete(stored.Key)).
		Commit()
	if err != nil {
		return false, fmt.Errorf("failed to delete heartbeat %s: %w", stored.Key, err)
	}

	return resp.Succeeded, nil
}

// HostKey returns the key a host's heartbeat is stored under
func HostKey(prefix, hostID string) string {
	return prefix + hostID
}

// LeaseTTL returns the lease TTL in whole seconds, rounded up, that keeps hb
// alive until its expiration. It returns 0 when no lease should be attached,
// and at least 1 for an expiration already in the past so the key goes away
// promptly.
func LeaseTTL(hb model.HeartBeat, now time.Time) int64 {
	if !hb.HasExpiration() {
		return 0
	}

	remaining := hb.ExpirationUTC.Sub(now)
	if remaining <= 0 {
		return 1
	}

	ttl := int64(remaining / time.Second)
	if remaining%time.Second != 0 {
		ttl++
	}

	return ttl
}

// DecodeKeyValue decodes a stored record
func DecodeKeyValue(kv *mvccpb.KeyValue) (StoredHeartBeat, error) {
	img, err := changefeed.ParseImage(kv.Value)
	if err != nil {
		return StoredHeartBeat{}, err
	}

	hb, err := changefeed.DecodeImage(img)
	if err != nil {
		return StoredHeartBeat{}, err
	}

	return StoredHeartBeat{
		HeartBeat: hb,
		Key:       string(kv.Key),
		Revision:  kv.ModRevision,
	}, nil
}
