package s3

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// assumeRole returns a cached provider for temporary credentials of o.roleARN.
func assumeRole(base aws.Config, o *options) aws.CredentialsProvider {
	provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(base), o.roleARN,
		func(ro *stscreds.AssumeRoleOptions) {
			ro.RoleSessionName = o.roleSessionName
			if o.externalID != "" {
				ro.ExternalID = aws.String(o.externalID)
			}
		})
	return aws.NewCredentialsCache(provider)
}
