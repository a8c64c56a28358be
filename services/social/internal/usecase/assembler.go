package usecase

import (
	"context"
	"sort"
	"time"

	"chronofeed/pkg/apperror"
	"chronofeed/pkg/metrics"
	"chronofeed/pkg/pagination"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/repo/persistent"

	"golang.org/x/sync/errgroup"
)

const candidateFetchConcurrency = 8

// feedAssembler merges the post indexes of a set of users into one
// time-ordered page. It holds no state between calls.
type feedAssembler struct {
	posts    persistent.PostRepository
	comments persistent.CommentRepository
	profiles persistent.ProfileRepository
}

type assembleRequest struct {
	kind string
	// postIDs yields the candidate post IDs, newest first.
	postIDs func(ctx context.Context) ([]string, error)
	page    int
	limit   int
	// visible reports whether a non-nil post may be shown.
	visible func(*entity.Post) bool
}

func (a *feedAssembler) assemble(ctx context.Context, req assembleRequest) (*entity.FeedPage, error) {
	defer func(start time.Time) {
		metrics.FeedAssemblyDuration.WithLabelValues(req.kind).Observe(time.Since(start).Seconds())
	}(time.Now())

	ids, err := req.postIDs(ctx)
	if err != nil {
		return nil, err
	}
	metrics.FeedCandidatePosts.WithLabelValues(req.kind).Observe(float64(len(ids)))

	var (
		posts  []*entity.Post
		counts []int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = a.posts.GetMany(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = a.comments.Counts(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperror.Upstream("fetch posts", err)
	}

	visible := make([]*entity.Post, 0, len(posts))
	for i, p := range posts {
		if p == nil || !req.visible(p) {
			continue
		}
		if i < len(counts) {
			p.CommentCount = counts[i]
		}
		visible = append(visible, p)
	}
	sortPosts(visible)

	meta := pagination.New(len(visible), req.page, req.limit)
	start, end := meta.Bounds()
	pagePosts := visible[start:end]

	authors, err := a.authors(ctx, pagePosts)
	if err != nil {
		return nil, err
	}

	items := make([]entity.FeedItem, len(pagePosts))
	for i, p := range pagePosts {
		items[i] = entity.FeedItem{Post: *p, Author: authors[p.Username]}
	}
	return &entity.FeedPage{Posts: items, Pagination: meta}, nil
}

// fromUsers reads every post ID of the given users concurrently and merges
// them, newest first.
func (a *feedAssembler) fromUsers(usernames []string) func(context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		return a.userPostIDs(ctx, dedupe(usernames))
	}
}

// fromIndex reads the newest max IDs of the site-wide post index.
func (a *feedAssembler) fromIndex(max int) func(context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		members, err := a.posts.LatestPostIDs(ctx, max)
		if err != nil {
			return nil, apperror.Upstream("read post index", err)
		}
		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = m.Member
		}
		return ids, nil
	}
}

func (a *feedAssembler) userPostIDs(ctx context.Context, candidates []string) ([]string, error) {
	perUser := make([][]scored, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(candidateFetchConcurrency)
	for i, name := range candidates {
		g.Go(func() error {
			members, err := a.posts.UserPostIDs(gctx, name, 0)
			if err != nil {
				return err
			}
			list := make([]scored, len(members))
			for j, m := range members {
				list[j] = scored{id: m.Member, score: m.Score}
			}
			perUser[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperror.Upstream("read post index", err)
	}

	return mergeNewest(perUser), nil
}

// authors resolves the profiles of the page's authors once each.
func (a *feedAssembler) authors(ctx context.Context, posts []*entity.Post) (map[string]*entity.Author, error) {
	cache := make(map[string]*entity.Author)
	var names []string
	for _, p := range posts {
		if _, ok := cache[p.Username]; !ok {
			cache[p.Username] = nil
			names = append(names, p.Username)
		}
	}
	if len(names) == 0 {
		return cache, nil
	}

	profiles, err := a.profiles.GetManyByUsername(ctx, names)
	if err != nil {
		return nil, apperror.Upstream("get authors", err)
	}
	for i, profile := range profiles {
		if profile != nil {
			cache[names[i]] = entity.AuthorOf(profile)
		}
	}
	return cache, nil
}

type scored struct {
	id    string
	score float64
}

// mergeNewest unions the lists, keeps each ID once and orders by score
// then ID, both descending.
func mergeNewest(lists [][]scored) []string {
	seen := make(map[string]struct{})
	var all []scored
	for _, list := range lists {
		for _, s := range list {
			if _, ok := seen[s.id]; ok {
				continue
			}
			seen[s.id] = struct{}{}
			all = append(all, s)
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].id > all[j].id
	})

	ids := make([]string, len(all))
	for i, s := range all {
		ids[i] = s.id
	}
	return ids
}

// sortPosts orders by PostDate descending; equal timestamps fall back to
// ID descending so pages are stable across requests.
func sortPosts(posts []*entity.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].PostDate.Equal(posts[j].PostDate) {
			return posts[i].PostDate.After(posts[j].PostDate)
		}
		return posts[i].ID > posts[j].ID
	})
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func notHidden(p *entity.Post) bool { return !p.Hidden }
