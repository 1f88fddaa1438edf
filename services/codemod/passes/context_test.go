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
	"strings"
	"testing"
)

func TestContextAPI_TypeScriptSplit(t *testing.T) {
	src := strings.Join([]string{
		"import { createHydrogenContext } from '@shopify/hydrogen';",
		"",
		"export async function createAppLoadContext(request: Request, env: Env) {",
		"  const hydrogenContext = createHydrogenContext({ env, request });",
		"",
		"  return {",
		"    ...hydrogenContext,",
		"    customProp: 'value',",
		"  };",
		"}",
		"",
	}, "\n")
	want := strings.Join([]string{
		"import { createHydrogenContext } from '@shopify/hydrogen';",
		"",
		"declare module 'react-router' {",
		"  interface AppLoadContext {",
		"    customProp: any;",
		"  }",
		"}",
		"",
		"export async function createHydrogenRouterContext(request: Request, env: Env) {",
		"  const hydrogenContext = createHydrogenContext({ env, request });",
		"",
		"  const additionalContext = {",
		"    customProp: 'value',",
		"  } as const;",
		"",
		"  return Object.assign(hydrogenContext, additionalContext);",
		"}",
		"",
	}, "\n")

	applyTwice(t, ContextAPI{}, "app/lib/context.ts", src, want, tsProfile)
}

func TestContextAPI_JavaScriptSplit(t *testing.T) {
	src := strings.Join([]string{
		"export const createAppLoadContext = async (request, env) => {",
		"  const base = await createHydrogenContext({ env, request });",
		"  return { ...base, cart, session };",
		"};",
		"",
	}, "\n")
	want := strings.Join([]string{
		"/**",
		" * @typedef {Object} AdditionalContext",
		" * @property {*} cart",
		" * @property {*} session",
		" */",
		"",
		"export const createHydrogenRouterContext = async (request, env) => {",
		"  const base = await createHydrogenContext({ env, request });",
		"  const additionalContext = {",
		"    cart,",
		"    session,",
		"  };",
		"",
		"  return {...base, ...additionalContext};",
		"};",
		"",
	}, "\n")

	applyTwice(t, ContextAPI{}, "app/lib/context.js", src, want, jsProfile)
}

func TestContextAPI_SpreadOnlyRenames(t *testing.T) {
	src := "export function createAppLoadContext() {\n  return { ...hydrogenContext };\n}\n"
	want := "export function createHydrogenRouterContext() {\n  return { ...hydrogenContext };\n}\n"

	applyTwice(t, ContextAPI{}, "app/lib/context.ts", src, want, tsProfile)
}

func TestContextAPI_ServerImportRenamed(t *testing.T) {
	src := "import { createAppLoadContext } from '~/lib/context';\n\n" +
		"export default { fetch: (r, env) => createAppLoadContext(r, env) };\n"
	want := "import { createHydrogenRouterContext } from '~/lib/context';\n\n" +
		"export default { fetch: (r, env) => createHydrogenRouterContext(r, env) };\n"

	applyTwice(t, ContextAPI{}, "server.ts", src, want, tsProfile)
}

func TestContextAPI_NoFactory(t *testing.T) {
	src := "export function somethingElse() {\n  return { ...hydrogenContext, a: 1 };\n}\n"
	applyNone(t, ContextAPI{}, "app/lib/context.ts", src, tsProfile)
}

func TestContextAPI_StorefrontI18n(t *testing.T) {
	src := strings.Join([]string{
		"export async function loader({ context }) {",
		"  const language = context.storefront.i18n.language;",
		"  const { country } = context.storefront.i18n;",
		"  const deep = args.context.storefront.i18n.country.isoCode;",
		"  return { language, country, deep };",
		"}",
		"",
	}, "\n")
	want := strings.Join([]string{
		"export async function loader({ context }) {",
		"  const language = context.customerAccount.i18n.language;",
		"  const { country } = context.customerAccount.i18n;",
		"  const deep = args.context.customerAccount.i18n.country.isoCode;",
		"  return { language, country, deep };",
		"}",
		"",
	}, "\n")

	applyTwice(t, ContextAPI{}, "app/routes/account.js", src, want, jsProfile)
}

func TestContextAPI_BareStorefrontUntouched(t *testing.T) {
	src := "const { storefront } = context;\nconst l = storefront.i18n.language;\n"
	applyNone(t, ContextAPI{}, "app/routes/account.js", src, jsProfile)
}
