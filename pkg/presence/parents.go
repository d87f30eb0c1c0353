package presence

import (
	"context"
	"fmt"
)

// parentService implements the ParentService interface
type parentService struct {
	client *Client
}

func (p *parentService) List(ctx context.Context) ([]*Parent, error) {
	var parents []*Parent
	if err := p.client.get(ctx, "/parents/", &parents); err != nil {
		return nil, err
	}
	return parents, nil
}

func (p *parentService) Get(ctx context.Context, id int) (*Parent, error) {
	var parent Parent
	if err := p.client.get(ctx, fmt.Sprintf("/parents/%d/", id), &parent); err != nil {
		return nil, err
	}
	return &parent, nil
}

func (p *parentService) Create(ctx context.Context, parent *Parent) (*Parent, error) {
	var created Parent
	if err := p.client.post(ctx, "/parents/", parent, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (p *parentService) Update(ctx context.Context, id int, parent *Parent) (*Parent, error) {
	var updated Parent
	if err := p.client.put(ctx, fmt.Sprintf("/parents/%d/", id), parent, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (p *parentService) Delete(ctx context.Context, id int) error {
	return p.client.del(ctx, fmt.Sprintf("/parents/%d/", id))
}
