package presence

import (
	"context"
	"fmt"
)

// classService implements the ClassService interface
type classService struct {
	client *Client
}

func (c *classService) List(ctx context.Context) ([]*Classe, error) {
	var classes []*Classe
	if err := c.client.get(ctx, "/classes/", &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

func (c *classService) Get(ctx context.Context, id int) (*Classe, error) {
	var classe Classe
	if err := c.client.get(ctx, fmt.Sprintf("/classes/%d/", id), &classe); err != nil {
		return nil, err
	}
	return &classe, nil
}

func (c *classService) Create(ctx context.Context, classe *Classe) (*Classe, error) {
	var created Classe
	if err := c.client.post(ctx, "/classes/", classe, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *classService) Update(ctx context.Context, id int, classe *Classe) (*Classe, error) {
	var updated Classe
	if err := c.client.put(ctx, fmt.Sprintf("/classes/%d/", id), classe, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *classService) Delete(ctx context.Context, id int) error {
	return c.client.del(ctx, fmt.Sprintf("/classes/%d/", id))
}

// Students lists the students enrolled in a class
func (c *classService) Students(ctx context.Context, id int) ([]*Student, error) {
	var students []*Student
	if err := c.client.get(ctx, fmt.Sprintf("/classes/%d/etudiants/", id), &students); err != nil {
		return nil, err
	}
	return students, nil
}
