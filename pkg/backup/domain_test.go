/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package backup

import (
	"context"
	"errors"
	"testing"

	"github.com/carverauto/configguard/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const invalidInput = "                 ^\n% Invalid input detected at '^' marker.\n"

func TestLooksLikeInvalidInput(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{text: "% Invalid input detected at '^' marker.", want: true},
		{text: invalidInput, want: true},
		{text: "example.com\n", want: false},
		{text: "", want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LooksLikeInvalidInput(tt.text), "text %q", tt.text)
	}
}

func TestResolveDomainFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := session.NewMockClient(ctrl)

	gomock.InOrder(
		client.EXPECT().Execute(gomock.Any(), CommandShowIPDomain).
			Return("% Invalid input detected at '^' marker.", nil),
		client.EXPECT().Execute(gomock.Any(), CommandShowRunDomainName).
			Return(" ip domain name example.com ", nil),
	)

	domain, err := ResolveDomain(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, "example.com", domain)
}

func TestResolveDomainWithoutFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := session.NewMockClient(ctrl)

	// any call to the fallback command fails the test
	client.EXPECT().Execute(gomock.Any(), CommandShowIPDomain).Return("  corp.example.net\n", nil)

	domain, err := ResolveDomain(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, "corp.example.net", domain)
}

func TestResolveDomainKeepsUnusableText(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := session.NewMockClient(ctrl)

	client.EXPECT().Execute(gomock.Any(), CommandShowIPDomain).Return(invalidInput, nil)
	client.EXPECT().Execute(gomock.Any(), CommandShowRunDomainName).Return(invalidInput, nil)

	domain, err := ResolveDomain(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, "^\n% Invalid input detected at '^' marker.", domain)
}

func TestResolveDomainRemovesEveryKeyword(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := session.NewMockClient(ctrl)

	client.EXPECT().Execute(gomock.Any(), CommandShowIPDomain).Return(invalidInput, nil)
	client.EXPECT().Execute(gomock.Any(), CommandShowRunDomainName).
		Return("ip domain name example.com\nip domain name lab.example.com\n", nil)

	domain, err := ResolveDomain(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, "example.com\n lab.example.com", domain)
}

func TestResolveDomainExecuteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := session.NewMockClient(ctrl)

	errRead := errors.New("read failed")

	client.EXPECT().Execute(gomock.Any(), CommandShowIPDomain).Return(invalidInput, nil)
	client.EXPECT().Execute(gomock.Any(), CommandShowRunDomainName).Return("", errRead)

	_, err := ResolveDomain(context.Background(), client)
	require.ErrorIs(t, err, errRead)
}
