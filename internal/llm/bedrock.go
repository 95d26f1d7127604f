package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"promptgate/internal/domain"
)

// BedrockConfig holds AWS Bedrock credentials and region.
type BedrockConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// BedrockClient is a Completer for AWS Bedrock using the Converse API.
type BedrockClient struct {
	runtimeClient *bedrockruntime.Client
	region        string
}

// NewBedrockClient creates a new Bedrock client using IAM credentials.
func NewBedrockClient(cfg BedrockConfig) (*BedrockClient, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("no credentials provided: need AccessKeyID + SecretAccessKey")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &BedrockClient{
		runtimeClient: bedrockruntime.NewFromConfig(awsCfg),
		region:        region,
	}, nil
}

// ProviderName returns the provider identifier.
func (c *BedrockClient) ProviderName() string {
	return "bedrock"
}

// Complete performs a non-streaming completion via the Converse API.
// System messages are carried in the Converse system block rather than
// the message list, per the Bedrock API contract.
func (c *BedrockClient) Complete(ctx context.Context, model string, messages []domain.Message) (*domain.ChatResponse, error) {
	var system []types.SystemContentBlock
	var converseMessages []types.Message

	for _, msg := range messages {
		if msg.Role == domain.RoleSystem {
			system = append(system, &types.SystemContentBlockMemberText{
				Value: msg.Content,
			})
			continue
		}

		role := types.ConversationRoleUser
		if msg.Role == domain.RoleAssistant {
			role = types.ConversationRoleAssistant
		}

		converseMessages = append(converseMessages, types.Message{
			Role: role,
			Content: []types.ContentBlock{
				&types.ContentBlockMemberText{Value: msg.Content},
			},
		})
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(model),
		Messages: converseMessages,
		System:   system,
	}

	output, err := c.runtimeClient.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock Converse API error: %w", err)
	}

	response := &domain.ChatResponse{
		Model:    model,
		Provider: c.ProviderName(),
	}

	if output.Output != nil {
		if msgOutput, ok := output.Output.(*types.ConverseOutputMemberMessage); ok {
			var textContent strings.Builder
			for _, block := range msgOutput.Value.Content {
				if text, ok := block.(*types.ContentBlockMemberText); ok {
					textContent.WriteString(text.Value)
				}
			}
			response.Content = textContent.String()
		}
	}

	if output.Usage != nil {
		response.Usage = &domain.Usage{
			PromptTokens:     aws.ToInt32(output.Usage.InputTokens),
			CompletionTokens: aws.ToInt32(output.Usage.OutputTokens),
			TotalTokens:      aws.ToInt32(output.Usage.TotalTokens),
		}
	}

	return response, nil
}
