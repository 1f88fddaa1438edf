// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImportRewrite(t *testing.T) {
	tests := []struct {
		name string
		path string
		src  string
		want string
	}{
		{
			name: "hydrogen json becomes router data",
			path: "app/routes/_index.tsx",
			src: "import { json, redirect } from '@shopify/hydrogen';\n\n" +
				"export async function loader() {\n  return json({hello:'world'});\n}\n",
			want: "import { data, redirect } from 'react-router';\n\n" +
				"export async function loader() {\n  return data({hello:'world'});\n}\n",
		},
		{
			name: "sdk-only exports stay on hydrogen",
			path: "app/routes/products.$handle.tsx",
			src: "import { Image, useLoaderData } from '@shopify/hydrogen';\n\n" +
				"export default function Product() {\n  const product = useLoaderData();\n  return <Image data={product.image} />;\n}\n",
			want: "import { Image } from '@shopify/hydrogen';\nimport { useLoaderData } from 'react-router';\n\n" +
				"export default function Product() {\n  const product = useLoaderData();\n  return <Image data={product.image} />;\n}\n",
		},
		{
			name: "remix import merges into existing router import",
			path: "app/routes/cart.ts",
			src: "import { Link } from 'react-router';\nimport { useLoaderData, json } from '@remix-run/react';\n\n" +
				"export const loader = () => json({ a: 1 });\n",
			want: "import { Link, useLoaderData, data } from 'react-router';\n\n" +
				"export const loader = () => data({ a: 1 });\n",
		},
		{
			name: "local data binding forces an alias",
			path: "app/routes/cart.ts",
			src: "import { json } from '@remix-run/node';\n\n" +
				"const data = { a: 1 };\nexport const loader = () => json(data);\n",
			want: "import { data as routerData } from 'react-router';\n\n" +
				"const data = { a: 1 };\nexport const loader = () => routerData(data);\n",
		},
		{
			name: "renames keep aliases",
			path: "app/lib/stub.test-helper.ts",
			src: "import { createRemixStub } from '@remix-run/testing';\nimport { unstable_data as d } from '@remix-run/node';\n\n" +
				"const Stub = createRemixStub([]);\nexport const x = d(1, { status: 201 });\n",
			want: "import { createRoutesStub, data as d } from 'react-router';\n\n" +
				"const Stub = createRoutesStub([]);\nexport const x = d(1, { status: 201 });\n",
		},
		{
			name: "type and value kinds stay separate",
			path: "app/routes/cart.ts",
			src: "import type { LoaderFunctionArgs } from '@remix-run/node';\nimport { json } from '@remix-run/node';\n\n" +
				"export const loader = (args: LoaderFunctionArgs) => json(args.params);\n",
			want: "import type { LoaderFunctionArgs } from 'react-router';\nimport { data } from 'react-router';\n\n" +
				"export const loader = (args: LoaderFunctionArgs) => data(args.params);\n",
		},
		{
			name: "duplicate router imports merge",
			path: "app/root.tsx",
			src:  "import { Link } from 'react-router';\nimport { Form, Link } from 'react-router';\n\nexport { Link, Form };\n",
			want: "import { Link, Form } from 'react-router';\n\nexport { Link, Form };\n",
		},
		{
			name: "shorthand properties keep their key",
			path: "app/lib/helpers.ts",
			src: "import { json } from '@shopify/hydrogen';\n\n" +
				"const helpers = { json };\nexport { helpers };\n",
			want: "import { data } from 'react-router';\n\n" +
				"const helpers = { json: data };\nexport { helpers };\n",
		},
		{
			name: "local exports keep their exported name",
			path: "app/lib/responses.ts",
			src:  "import { json } from '@remix-run/node';\n\nexport { json, json as respond };\n",
			want: "import { data } from 'react-router';\n\nexport { data as json, data as respond };\n",
		},
		{
			name: "duplicate legacy imports merge",
			path: "app/routes/products.$handle.tsx",
			src: "import { Image } from '@shopify/hydrogen';\nimport { Money, json } from '@shopify/hydrogen';\n\n" +
				"export const loader = () => json(1);\nexport { Image, Money };\n",
			want: "import { Image, Money } from '@shopify/hydrogen';\nimport { data } from 'react-router';\n\n" +
				"export const loader = () => data(1);\nexport { Image, Money };\n",
		},
		{
			name: "moved multi-line import keeps its layout",
			path: "app/root.tsx",
			src: "import {\n  Links,\n  Meta,\n  json,\n} from \"@remix-run/react\";\n\n" +
				"export const loader = () => json(1);\nexport { Links, Meta };\n",
			want: "import {\n  Links,\n  Meta,\n  data,\n} from \"react-router\";\n\n" +
				"export const loader = () => data(1);\nexport { Links, Meta };\n",
		},
		{
			name: "multi-line clause stays multi-line",
			path: "app/root.tsx",
			src: "import {\n  Image,\n  Links,\n  Meta,\n} from '@shopify/hydrogen';\n\nexport { Image, Links, Meta };\n",
			want: "import {\n  Image,\n} from '@shopify/hydrogen';\nimport { Links, Meta } from 'react-router';\n\nexport { Image, Links, Meta };\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applyTwice(t, NewImportRewrite(nil), tt.path, tt.src, tt.want, tsProfile)
		})
	}
}

func TestImportRewrite_SDKOnlyImportUntouched(t *testing.T) {
	src := "import { Image, CacheLong, createHydrogenContext } from '@shopify/hydrogen';\n\nexport { Image, CacheLong, createHydrogenContext };\n"
	applyNone(t, NewImportRewrite(nil), "app/lib/context.ts", src, tsProfile)
}

func TestImportRewrite_UnrelatedModulesUntouched(t *testing.T) {
	src := "import { json } from './utils';\nimport React from 'react';\n\nexport const x = json(React);\n"
	applyNone(t, NewImportRewrite(nil), "app/routes/_index.tsx", src, tsProfile)
}

func TestImportMapping_Handles(t *testing.T) {
	assert.True(t, RemixMapping.handles("@remix-run/react"))
	assert.True(t, RemixMapping.handles("react-router-dom"))
	assert.False(t, RemixMapping.handles("react-router"))
	assert.True(t, HydrogenMapping.handles(HydrogenModule))
	assert.True(t, HydrogenMapping.Keep["Image"])
	assert.False(t, HydrogenMapping.Keep["useLoaderData"])
}
