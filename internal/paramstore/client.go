package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

var ErrMissingValue = errors.New("paramstore: parameter missing value")

// ssmAPI es la parte del cliente de SSM que se usa; *ssm.Client la satisface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter lee parametros por nombre.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client lee secretos del Parameter Store de AWS.
type Client struct {
	api ssmAPI
}

func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

// GetParameter devuelve el valor descifrado, sin espacios alrededor.
func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	withDecryption := true
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", ErrMissingValue
	}
	value := strings.TrimSpace(*out.Parameter.Value)
	if value == "" {
		return "", ErrMissingValue
	}
	return value, nil
}
